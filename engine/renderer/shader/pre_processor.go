// pre_processor.go implements the WGSL include pre-processor. A line of the form
//
//	// @spine:include <name>
//
// is replaced with the registered WGSL source for <name>, so GPU struct definitions live next to
// the Go types they mirror and are never duplicated by hand.
package shader

import (
	"fmt"
	"strings"

	"github.com/dragonikpl/spine-runtimes/engine/assembler"
)

// annotationPrefix marks an include annotation inside a WGSL line comment.
const annotationPrefix = "@spine:include"

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// includes maps include names to their embedded WGSL source.
	includes map[string]string
}

// PreProcessor expands include annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every include annotation with its registered source.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of a malformed or unknown include
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every GPU struct source of the engine registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		includes: map[string]string{
			"vertex": assembler.GPUSpineVertexSource,
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		comment, ok := strings.CutPrefix(strings.TrimSpace(line), "//")
		if !ok {
			out = append(out, line)
			continue
		}
		args, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		fields := strings.Fields(args)
		if len(fields) != 1 {
			return "", fmt.Errorf("line %d: %s expects exactly one argument", i+1, annotationPrefix)
		}
		include, ok := p.includes[fields[0]]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, fields[0])
		}
		out = append(out, include)
	}
	return strings.Join(out, "\n"), nil
}
