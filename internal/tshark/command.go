package tshark

// Options controls how tshark is invoked.
type Options struct {
	// Path of the tshark binary. Defaults to "tshark".
	Path string
	// Interface is passed to -i verbatim (a name or a tshark index).
	Interface string
	// BPF is the capture filter. Defaults to DefaultBPF.
	BPF string
}

func (o Options) binary() string {
	if o.Path == "" {
		return "tshark"
	}
	return o.Path
}

// BuildArgs returns the tshark argument list (without the binary).
//
// -l: flush stdout after each packet
// -n: disable name resolution
// -T fields with a tab separator: one column per field, empty columns kept
// -E occurrence=f: first value only when a field repeats (tunnels)
func BuildArgs(opts Options) []string {
	bpf := opts.BPF
	if bpf == "" {
		bpf = DefaultBPF
	}

	args := make([]string, 0, 12+2*len(Fields))
	if opts.Interface != "" {
		args = append(args, "-i", opts.Interface)
	}
	args = append(args,
		"-l", "-n",
		"-f", bpf,
		"-T", "fields",
		"-E", "separator=/t",
		"-E", "occurrence=f",
	)
	for _, f := range Fields {
		args = append(args, "-e", string(f))
	}
	return args
}
