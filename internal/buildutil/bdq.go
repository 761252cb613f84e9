// Package buildutil serializes a compiled Babyduck program to and from a
// ".bdq" (Babyduck quadruples) file, and drives directory-wide build and
// watch workflows over ".bd" source files.
package buildutil

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"babyduck/internal/bytecode"
	"babyduck/internal/driver"
	"babyduck/internal/symbols"
)

// Magic and version identify a .bdq file and guard against loading one
// written by an incompatible version of this toolchain.
const (
	Magic       = 0x42445543 // "BDUC"
	FormatVersion = 1
)

// resultKind tags which of a Quad's four possible Result encodings follows
// in the stream.
type resultKind byte

const (
	resultNone resultKind = iota
	resultAddr
	resultIndex
	resultFunc
	resultParam
)

// Serialize writes quads, consts and funcs to w as a .bdq file.
func Serialize(w io.Writer, quads *bytecode.QuadList, consts *symbols.ConstantsPool, funcs *symbols.FunctionDir) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(Magic)); err != nil {
		return errors.Wrap(err, "write magic")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return errors.Wrap(err, "write version")
	}
	if err := serializeQuads(w, quads); err != nil {
		return errors.Wrap(err, "write quads")
	}
	if err := serializeConsts(w, consts); err != nil {
		return errors.Wrap(err, "write consts")
	}
	if err := serializeFuncs(w, funcs); err != nil {
		return errors.Wrap(err, "write funcs")
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func serializeQuads(w io.Writer, quads *bytecode.QuadList) error {
	all := quads.All()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(all))); err != nil {
		return err
	}
	for _, q := range all {
		if err := writeString(w, string(q.Op)); err != nil {
			return err
		}
		if err := writeOptAddr(w, q.Left); err != nil {
			return err
		}
		if err := writeOptAddr(w, q.Right); err != nil {
			return err
		}
		switch {
		case q.ResultAddr != nil:
			binary.Write(w, binary.LittleEndian, byte(resultAddr))
			binary.Write(w, binary.LittleEndian, int32(*q.ResultAddr))
		case q.ResultIndex != nil:
			binary.Write(w, binary.LittleEndian, byte(resultIndex))
			binary.Write(w, binary.LittleEndian, int32(*q.ResultIndex))
		case q.ResultFunc != "":
			binary.Write(w, binary.LittleEndian, byte(resultFunc))
			if err := writeString(w, q.ResultFunc); err != nil {
				return err
			}
		case q.ResultParam != nil:
			binary.Write(w, binary.LittleEndian, byte(resultParam))
			binary.Write(w, binary.LittleEndian, int32(*q.ResultParam))
		default:
			binary.Write(w, binary.LittleEndian, byte(resultNone))
		}
	}
	return nil
}

func writeOptAddr(w io.Writer, a *bytecode.Addr) error {
	if a == nil {
		return binary.Write(w, binary.LittleEndian, byte(0))
	}
	if err := binary.Write(w, binary.LittleEndian, byte(1)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int32(*a))
}

func readOptAddr(r io.Reader) (*bytecode.Addr, error) {
	var present byte
	if err := binary.Read(r, binary.LittleEndian, &present); err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return nil, err
	}
	addr := bytecode.Addr(v)
	return &addr, nil
}

func deserializeQuads(r io.Reader) (*bytecode.QuadList, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	list := bytecode.NewQuadList()
	for i := uint32(0); i < n; i++ {
		opStr, err := readString(r)
		if err != nil {
			return nil, err
		}
		left, err := readOptAddr(r)
		if err != nil {
			return nil, err
		}
		right, err := readOptAddr(r)
		if err != nil {
			return nil, err
		}
		var kind byte
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return nil, err
		}
		q := bytecode.Quad{Op: bytecode.Op(opStr), Left: left, Right: right}
		switch resultKind(kind) {
		case resultAddr:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			addr := bytecode.Addr(v)
			q.ResultAddr = &addr
		case resultIndex:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			idx := int(v)
			q.ResultIndex = &idx
		case resultFunc:
			s, err := readString(r)
			if err != nil {
				return nil, err
			}
			q.ResultFunc = s
		case resultParam:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			idx := int(v)
			q.ResultParam = &idx
		}
		list.Append(q)
	}
	return list, nil
}

// constTag identifies the runtime type of a serialized constant value.
const (
	tagInt byte = iota
	tagFloat
	tagString
)

func serializeConsts(w io.Writer, consts *symbols.ConstantsPool) error {
	entries := consts.Entries()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(entries))); err != nil {
		return err
	}
	for addr, entry := range entries {
		if err := binary.Write(w, binary.LittleEndian, int32(addr)); err != nil {
			return err
		}
		switch v := entry.Value.(type) {
		case int64:
			binary.Write(w, binary.LittleEndian, tagInt)
			binary.Write(w, binary.LittleEndian, v)
		case float64:
			binary.Write(w, binary.LittleEndian, tagFloat)
			binary.Write(w, binary.LittleEndian, v)
		case string:
			binary.Write(w, binary.LittleEndian, tagString)
			if err := writeString(w, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported constant value type %T", v)
		}
	}
	return nil
}

// LoadedConsts is the deserialized constants table, ready to hand to
// vm.NewMemory.
type LoadedConsts map[bytecode.Addr]symbols.ConstantEntry

func deserializeConsts(r io.Reader) (LoadedConsts, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make(LoadedConsts, n)
	for i := uint32(0); i < n; i++ {
		var addrRaw int32
		if err := binary.Read(r, binary.LittleEndian, &addrRaw); err != nil {
			return nil, err
		}
		var tag byte
		if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
			return nil, err
		}
		addr := bytecode.Addr(addrRaw)
		switch tag {
		case tagInt:
			var v int64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			out[addr] = symbols.ConstantEntry{Value: v, Type: bytecode.TypeInt}
		case tagFloat:
			var v float64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			out[addr] = symbols.ConstantEntry{Value: v, Type: bytecode.TypeFloat}
		case tagString:
			s, err := readString(r)
			if err != nil {
				return nil, err
			}
			out[addr] = symbols.ConstantEntry{Value: s, Type: bytecode.TypeString}
		default:
			return nil, fmt.Errorf("unknown constant tag %d", tag)
		}
	}
	return out, nil
}

func serializeFuncs(w io.Writer, funcs *symbols.FunctionDir) error {
	all := funcs.Functions()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(all))); err != nil {
		return err
	}
	for name, fn := range all {
		if err := writeString(w, name); err != nil {
			return err
		}
		binary.Write(w, binary.LittleEndian, int32(fn.EntryQuad))
		hasEntry := byte(0)
		if fn.HasEntryQuad {
			hasEntry = 1
		}
		binary.Write(w, binary.LittleEndian, hasEntry)
		binary.Write(w, binary.LittleEndian, uint32(len(fn.Signature)))
		for _, t := range fn.Signature {
			binary.Write(w, binary.LittleEndian, byte(t))
		}
		if fn.FrameResources == nil {
			binary.Write(w, binary.LittleEndian, byte(0))
			continue
		}
		binary.Write(w, binary.LittleEndian, byte(1))
		fr := fn.FrameResources
		binary.Write(w, binary.LittleEndian, int32(fr.VarsInt))
		binary.Write(w, binary.LittleEndian, int32(fr.VarsFloat))
		binary.Write(w, binary.LittleEndian, int32(fr.TempsInt))
		binary.Write(w, binary.LittleEndian, int32(fr.TempsFloat))
	}
	return nil
}

// deserializeFuncs rebuilds a FunctionDir using its public API only: no
// variable-name table survives the round trip, since a compiled program
// never looks a variable up by name again.
func deserializeFuncs(r io.Reader) (*symbols.FunctionDir, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	scheme := bytecode.NewAddressScheme()
	dir := symbols.NewFunctionDir(scheme)
	for i := uint32(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		var entryQuad int32
		if err := binary.Read(r, binary.LittleEndian, &entryQuad); err != nil {
			return nil, err
		}
		var hasEntry byte
		if err := binary.Read(r, binary.LittleEndian, &hasEntry); err != nil {
			return nil, err
		}
		if hasEntry == 1 && name != symbols.GlobalFuncName {
			if err := dir.AddFunction(name, int(entryQuad), 0); err != nil {
				return nil, err
			}
		}
		var sigLen uint32
		if err := binary.Read(r, binary.LittleEndian, &sigLen); err != nil {
			return nil, err
		}
		for j := uint32(0); j < sigLen; j++ {
			var t byte
			if err := binary.Read(r, binary.LittleEndian, &t); err != nil {
				return nil, err
			}
			if err := dir.AddSignatureType(name, bytecode.Type(t), 0); err != nil {
				return nil, err
			}
		}
		var hasFrame byte
		if err := binary.Read(r, binary.LittleEndian, &hasFrame); err != nil {
			return nil, err
		}
		if hasFrame == 1 {
			var vi, vf, ti, tf int32
			binary.Read(r, binary.LittleEndian, &vi)
			binary.Read(r, binary.LittleEndian, &vf)
			binary.Read(r, binary.LittleEndian, &ti)
			binary.Read(r, binary.LittleEndian, &tf)
			fr := symbols.FrameResources{
				VarsInt: int(vi), VarsFloat: int(vf),
				TempsInt: int(ti), TempsFloat: int(tf),
			}
			if err := dir.SetFrameResources(name, fr, 0); err != nil {
				return nil, err
			}
		}
	}
	return dir, nil
}

// Loaded is a deserialized .bdq program, ready to run.
type Loaded struct {
	Quads  *bytecode.QuadList
	Consts LoadedConsts
	Funcs  *symbols.FunctionDir
}

// Deserialize reads a .bdq file from r.
func Deserialize(r io.Reader) (*Loaded, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if magic != Magic {
		return nil, fmt.Errorf("not a .bdq file: bad magic number")
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "read version")
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("unsupported .bdq format version %d", version)
	}
	quads, err := deserializeQuads(r)
	if err != nil {
		return nil, errors.Wrap(err, "read quads")
	}
	consts, err := deserializeConsts(r)
	if err != nil {
		return nil, errors.Wrap(err, "read consts")
	}
	funcs, err := deserializeFuncs(r)
	if err != nil {
		return nil, errors.Wrap(err, "read funcs")
	}
	return &Loaded{Quads: quads, Consts: consts, Funcs: funcs}, nil
}

// BuildConfig describes a directory-wide compile.
type BuildConfig struct {
	ProjectDir string
	OutputPath string
	EntryPoint string
	Verbose    bool
}

// BuildResult reports what a Build call did. BuildID identifies this build
// run for correlating it across logs, independent of OutputPath (which two
// concurrent builds of the same entry point would share).
type BuildResult struct {
	BuildID     string
	SourceFiles []string
	OutputPath  string
	OutputSize  int64
	BuildTime   time.Duration
	Errors      []error
}

// Build compiles config's entry point (or the sole .bd file in
// config.ProjectDir) and writes a .bdq file to config.OutputPath.
func Build(config *BuildConfig) *BuildResult {
	start := time.Now()
	result := &BuildResult{BuildID: uuid.New().String()}

	files, err := FindBabyduckFiles(config.ProjectDir)
	if err != nil {
		result.Errors = append(result.Errors, errors.Wrap(err, "finding source files"))
		return result
	}
	result.SourceFiles = files

	entry, err := FindEntryPoint(files, config.EntryPoint)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}
	if config.Verbose {
		fmt.Printf("entry point: %s\n", entry)
	}

	src, err := os.ReadFile(entry)
	if err != nil {
		result.Errors = append(result.Errors, errors.Wrapf(err, "reading %s", entry))
		return result
	}
	program, err := driver.Compile(string(src))
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}

	out := config.OutputPath
	if out == "" {
		out = strings.TrimSuffix(entry, filepath.Ext(entry)) + ".bdq"
	}
	f, err := os.Create(out)
	if err != nil {
		result.Errors = append(result.Errors, errors.Wrapf(err, "creating %s", out))
		return result
	}
	defer f.Close()
	if err := Serialize(f, program.Quads, program.Const, program.Funcs); err != nil {
		result.Errors = append(result.Errors, errors.Wrapf(err, "writing %s", out))
		return result
	}
	if info, statErr := f.Stat(); statErr == nil {
		result.OutputSize = info.Size()
	}
	result.OutputPath = out
	result.BuildTime = time.Since(start)
	if config.Verbose {
		fmt.Printf("[%s] wrote %s (%s) in %v\n", result.BuildID, out, humanize.Bytes(uint64(result.OutputSize)), result.BuildTime)
	}
	return result
}

// FindBabyduckFiles walks dir collecting every .bd source file.
func FindBabyduckFiles(dir string) ([]string, error) {
	return findBabyduckFiles(dir)
}

// FindEntryPoint picks main.bd, an explicitly configured path, or the sole
// file in a single-file project.
func FindEntryPoint(files []string, configured string) (string, error) {
	return findEntryPoint(files, configured)
}

func findBabyduckFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".bd") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// findEntryPoint picks main.bd, or the sole file in a single-file project.
func findEntryPoint(files []string, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	for _, f := range files {
		if filepath.Base(f) == "main.bd" {
			return f, nil
		}
	}
	if len(files) == 1 {
		return files[0], nil
	}
	return "", fmt.Errorf("no entry point found (create main.bd)")
}

// WatchConfig configures directory polling for Watch.
type WatchConfig struct {
	ProjectDir string
	Verbose    bool
	OnChange   func(files []string) error
}

// Watch polls ProjectDir for .bd file changes, invoking OnChange with the
// set of added/modified/removed paths.
func Watch(config *WatchConfig) error {
	if config.Verbose {
		fmt.Printf("Watching %s for changes...\n", config.ProjectDir)
	}
	modTimes := make(map[string]time.Time)
	seed, err := findBabyduckFiles(config.ProjectDir)
	if err != nil {
		return err
	}
	for _, f := range seed {
		if info, err := os.Stat(f); err == nil {
			modTimes[f] = info.ModTime()
		}
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		var changed []string
		current, err := findBabyduckFiles(config.ProjectDir)
		if err != nil {
			continue
		}
		seen := make(map[string]bool, len(current))
		for _, f := range current {
			seen[f] = true
			info, err := os.Stat(f)
			if err != nil {
				continue
			}
			prev, ok := modTimes[f]
			if !ok || info.ModTime().After(prev) {
				changed = append(changed, f)
				modTimes[f] = info.ModTime()
			}
		}
		for f := range modTimes {
			if !seen[f] {
				delete(modTimes, f)
				changed = append(changed, f)
			}
		}
		if len(changed) > 0 {
			if config.Verbose {
				fmt.Printf("changed: %v\n", changed)
			}
			if config.OnChange != nil {
				if err := config.OnChange(changed); err != nil {
					fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
				}
			}
		}
	}
	return nil
}
