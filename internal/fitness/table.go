package fitness

// ErrorTable maps parameter names to the error of the joint they rotate.
type ErrorTable map[string]float64

// JointResolver maps a parameter name to the bone index it drives.
type JointResolver interface {
	JointOf(name string) (int, bool)
}

// Table builds the per-parameter error table for names. Parameters whose
// joint covered no pixels get 0.
func (r *Result) Table(names []string, joints JointResolver) ErrorTable {
	t := make(ErrorTable, len(names))
	for _, name := range names {
		j, ok := joints.JointOf(name)
		if !ok {
			t[name] = 0
			continue
		}
		t[name] = r.BoneError(j)
	}
	return t
}

// Clone returns a copy of t.
func (t ErrorTable) Clone() ErrorTable {
	c := make(ErrorTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
