package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the specs compiled from a directory.
type LoadResult struct {
	Specs     *ir.SpecSet
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs compiles the CUE package in dir and, when prelude is set,
// merges the built-in extensions. A nil result means nothing could be
// compiled; otherwise errs holds per-declaration compile errors.
// The result is not validated.
func LoadSpecs(dir string, mode LoadMode, prelude bool) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{Specs: &ir.SpecSet{}, FileCount: len(cueFiles)}
	var errs []error

	collect := func(section string, compile func(cue.Value) error) bool {
		v := value.LookupPath(cue.ParsePath(section))
		if !v.Exists() {
			return true
		}
		iter, err := v.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", section, err)})
			return mode == LoadModeCollectAll
		}
		for iter.Next() {
			if err := compile(iter.Value()); err != nil {
				errs = append(errs, convertCompileError(err, section+"."+iter.Label()))
				if mode == LoadModeFailFast {
					return false
				}
			}
		}
		return true
	}

	ok := collect("record", func(v cue.Value) error {
		rec, err := compiler.CompileRecord(v)
		if err != nil {
			return err
		}
		result.Specs.Records = append(result.Specs.Records, *rec)
		return nil
	})
	if ok {
		collect("extension", func(v cue.Value) error {
			ext, err := compiler.CompileExtension(v)
			if err != nil {
				return err
			}
			result.Specs.Extensions = append(result.Specs.Extensions, *ext)
			return nil
		})
	}
	if len(errs) > 0 {
		return result, errs
	}

	if len(result.Specs.Records) == 0 && len(result.Specs.Extensions) == 0 {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no records or extensions found in specs"}}
	}

	compiler.ResolvePartTypes(result.Specs)
	if prelude {
		if _, err := compiler.WithPrelude(result.Specs); err != nil {
			return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("prelude: %v", err)}}
		}
	}
	return result, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Loader error codes. Spec validation codes (E1xx) come from the
// compiler package; decomposition codes (E2xx) from the engine.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadValue    = "E008" // Value literal does not fit its type
	ErrCodeStore       = "E009" // Trace database error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "type", strings.HasSuffix(field, ".target"):
		return compiler.ErrInvalidTypeRef
	case strings.HasSuffix(field, ".fields"):
		return compiler.ErrRecordNoFields
	case field == "part", strings.HasSuffix(field, ".parts"):
		return compiler.ErrInvalidProjection
	case field == "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
