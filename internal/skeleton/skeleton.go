// Package skeleton builds joint world and skinning transforms from pose parameters.
package skeleton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrUnknownJoint is returned when a parameter names a joint the skeleton lacks.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrBadAxis is returned when a parameter axis is not x, y or z.
	ErrBadAxis = errors.New("bad rotation axis")
	// ErrDuplicateJoint is returned when two joints share a name.
	ErrDuplicateJoint = errors.New("duplicate joint")
	// ErrCycle is returned when parent links do not form a forest.
	ErrCycle = errors.New("joint hierarchy has a cycle")
	// ErrNotControllable is returned when a parameter drives a joint
	// without TagControllable.
	ErrNotControllable = errors.New("joint not controllable")
)

// Tag is a bitset of region tags carried by a joint.
type Tag uint8

const (
	// TagHand marks joints whose vertices belong to the hand region.
	TagHand Tag = 1 << iota
	// TagControllable marks joints driven by pose parameters.
	TagControllable
)

// Joint is one node of the hierarchy. Transforms use column vectors:
// world = parentWorld * local and skinning = world * Offset.
type Joint struct {
	Name      string
	Parent    int // -1 for a root
	BindLocal mgl64.Mat4
	Offset    mgl64.Mat4 // inverse bind matrix
	Tags      Tag
}

// Has reports whether the joint carries all bits of tag.
func (j Joint) Has(tag Tag) bool {
	return j.Tags&tag == tag
}

// Skeleton is an immutable joint hierarchy.
type Skeleton struct {
	joints []Joint
	byName map[string]int
	order  []int // parents before children
}

// New validates joints and precomputes a parent-before-child order.
// Several roots are allowed; each root's parent transform is the identity.
func New(joints []Joint) (*Skeleton, error) {
	s := &Skeleton{
		joints: append([]Joint(nil), joints...),
		byName: make(map[string]int, len(joints)),
	}
	for i, j := range s.joints {
		if _, ok := s.byName[j.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateJoint, j.Name)
		}
		s.byName[j.Name] = i
		if j.Parent < -1 || j.Parent >= len(joints) || j.Parent == i {
			return nil, fmt.Errorf("joint %q: parent index %d out of range", j.Name, j.Parent)
		}
	}

	order, err := topoOrder(s.joints)
	if err != nil {
		return nil, err
	}
	s.order = order
	return s, nil
}

// topoOrder returns joint indices with every parent before its children.
func topoOrder(joints []Joint) ([]int, error) {
	children := make([][]int, len(joints))
	var queue []int
	for i, j := range joints {
		if j.Parent < 0 {
			queue = append(queue, i)
			continue
		}
		children[j.Parent] = append(children[j.Parent], i)
	}

	order := make([]int, 0, len(joints))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		queue = append(queue, children[i]...)
	}
	if len(order) != len(joints) {
		return nil, ErrCycle
	}
	return order, nil
}

// Len returns the number of joints.
func (s *Skeleton) Len() int { return len(s.joints) }

// Joint returns joint i.
func (s *Skeleton) Joint(i int) Joint { return s.joints[i] }

// Joints returns a copy of all joints.
func (s *Skeleton) Joints() []Joint { return append([]Joint(nil), s.joints...) }

// Index returns the index of the named joint.
func (s *Skeleton) Index(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Order returns the parent-before-child traversal order.
func (s *Skeleton) Order() []int { return append([]int(nil), s.order...) }

// Tagged returns the indices of joints carrying tag.
func (s *Skeleton) Tagged(tag Tag) []int {
	var out []int
	for i, j := range s.joints {
		if j.Has(tag) {
			out = append(out, i)
		}
	}
	return out
}

// TagRightHand derives region tags from the rig's naming scheme.
// Finger, wrist and palm joints on the right side belong to the hand;
// only fingers are driven by pose parameters.
func TagRightHand(name string) Tag {
	if !strings.Contains(name, "_R") {
		return 0
	}
	var tags Tag
	switch {
	case strings.Contains(name, "Finger"):
		tags = TagHand | TagControllable
	case strings.Contains(name, "Wrist"), strings.Contains(name, "Palm"):
		tags = TagHand
	}
	return tags
}

// TagNames returns a tagger that gives tag to every joint listed in names.
func TagNames(tag Tag, names ...string) func(string) Tag {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) Tag {
		if set[name] {
			return tag
		}
		return 0
	}
}

// WithTags returns a copy of s whose joint tags are recomputed by tagger.
func (s *Skeleton) WithTags(tagger func(name string) Tag) *Skeleton {
	c := &Skeleton{
		joints: append([]Joint(nil), s.joints...),
		byName: s.byName,
		order:  s.order,
	}
	for i := range c.joints {
		c.joints[i].Tags = tagger(c.joints[i].Name)
	}
	return c
}
