package opencl

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/clfib/internal/kernel"
)

// Run compiles src, evaluates its entry point once per input element and
// returns the output elements. Work items are dispatched one per group,
// so a single input runs exactly one work item in one group.
//
// The queue is in-order: both writes, the dispatch and the blocking read
// complete in submission order. Flush and Finish then drain the queue
// before the result is handed back. Every resource Run creates stays owned
// by the session and is released by Close.
func (s *Session) Run(src kernel.Source, inputs []float32) ([]float32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no input elements", ErrDispatch)
	}

	program, err := s.Build(src)
	if err != nil {
		return nil, err
	}
	k, err := program.Kernel(src.Entry)
	if err != nil {
		return nil, err
	}

	size := Float32Bytes(len(inputs))
	in, err := s.Allocate("input", size)
	if err != nil {
		return nil, err
	}
	out, err := s.Allocate("output", size)
	if err != nil {
		return nil, err
	}

	results := make([]float32, len(inputs))
	if err := s.Write(in, inputs); err != nil {
		return nil, err
	}
	if err := s.Write(out, results); err != nil {
		return nil, err
	}

	if err := k.SetArg(0, in); err != nil {
		return nil, err
	}
	if err := k.SetArg(1, out); err != nil {
		return nil, err
	}

	if err := s.Enqueue(k, len(inputs), 1); err != nil {
		return nil, err
	}
	if err := s.Read(out, results); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}

	slog.Debug("OpenCL dispatch complete", "entry", k.Name, "work_items", len(inputs))
	return results, nil
}
