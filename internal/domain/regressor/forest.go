package regressor

import "fmt"

// leaf marks a node without children in flattened tree arrays.
const leaf = -1

// Tree is a fitted decision tree in flattened array form: node i splits on
// Feature[i] at Threshold[i] and is a leaf when ChildrenLeft[i] is -1.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left" yaml:"children_left"`
	ChildrenRight []int     `json:"children_right" yaml:"children_right"`
	Feature       []int     `json:"feature" yaml:"feature"`
	Threshold     []float64 `json:"threshold" yaml:"threshold"`
	Value         []float64 `json:"value" yaml:"value"`
}

// Forest averages the outputs of its trees.
type Forest struct {
	trees     []Tree
	nFeatures int
}

// NewForest validates the trees against nFeatures and builds a forest.
func NewForest(nFeatures int, trees []Tree) (*Forest, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive", ErrInvalidModel)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	for i := range trees {
		if err := validateTree(trees[i], nFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	cp := make([]Tree, len(trees))
	copy(cp, trees)
	return &Forest{trees: cp, nFeatures: nFeatures}, nil
}

func validateTree(t Tree, nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("%w: node arrays differ in length", ErrInvalidModel)
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf {
			if r != leaf {
				return fmt.Errorf("%w: node %d has only a right child", ErrInvalidModel, i)
			}
			if !finite(t.Value[i]) {
				return fmt.Errorf("%w: node %d has a non-finite value", ErrInvalidModel, i)
			}
			continue
		}
		// children are stored after their parent, which also rules out cycles
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("%w: node %d has children out of order", ErrInvalidModel, i)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidModel, i, f)
		}
	}
	return nil
}

// NumFeatures returns the row width the forest was fitted on.
func (f *Forest) NumFeatures() int { return f.nFeatures }

// NumTrees returns the number of trees.
func (f *Forest) NumTrees() int { return len(f.trees) }

// Predict returns the mean tree output for x.
func (f *Forest) Predict(x []float64) (float64, error) {
	if err := checkWidth(x, f.nFeatures); err != nil {
		return 0, err
	}
	var sum float64
	for i := range f.trees {
		sum += evalTree(&f.trees[i], x)
	}
	return sum / float64(len(f.trees)), nil
}

func evalTree(t *Tree, x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}
