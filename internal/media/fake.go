package media

import "context"

// Fake is an in-memory Service for tests and dry runs. Operations
// succeed unless FailWith is set, in which case every call reports that
// error text verbatim.
type Fake struct {
	FailWith string
	Meta     Metadata
	// MergeCalls records the inputs of each Merge invocation.
	MergeCalls [][]string
}

func (f *Fake) result(output string) Result {
	if f.FailWith != "" {
		return Result{Success: false, Err: f.FailWith}
	}
	return Result{Success: true, OutputPath: output}
}

func (f *Fake) Merge(ctx context.Context, inputs []string, output string) Result {
	f.MergeCalls = append(f.MergeCalls, inputs)
	if len(inputs) == 0 {
		return Result{Success: false, Err: "no input files"}
	}
	return f.result(output)
}

func (f *Fake) Cut(ctx context.Context, input, output, start, end, duration string) Result {
	return f.result(output)
}

func (f *Fake) Subtitle(ctx context.Context, input, output string, opts SubtitleOptions) Result {
	return f.result(output)
}

func (f *Fake) Resize(ctx context.Context, input, output string, width, height int, keepAspect bool) Result {
	return f.result(output)
}

func (f *Fake) OptimizeForPlatform(ctx context.Context, input, output, platform string) Result {
	return f.result(output)
}

func (f *Fake) Probe(ctx context.Context, input string) (Metadata, error) {
	return f.Meta, nil
}
