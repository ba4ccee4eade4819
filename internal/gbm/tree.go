package gbm

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	leaf      bool
	value     float64
}

type tree struct {
	nodes []node
}

func (t tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type split struct {
	feature int
	bin     int
	gain    float64
}

type grower struct {
	params Params
	binned *binned
	order  []int
	grad   []float64
	hess   []float64
	nodes  []node
}

func (g *grower) grow(rows []int) tree {
	g.nodes = nil
	g.build(rows, 0)
	return tree{nodes: g.nodes}
}

// build appends the subtree for rows and returns its root index.
func (g *grower) build(rows []int, depth int) int {
	var G, H float64
	for _, i := range rows {
		G += g.grad[i]
		H += g.hess[i]
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, node{})

	if depth < g.params.MaxDepth {
		if s, ok := g.bestSplit(rows, G, H); ok {
			bins := g.binned.bins[s.feature]
			var left, right []int
			for _, i := range rows {
				if int(bins[i]) <= s.bin {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			l := g.build(left, depth+1)
			r := g.build(right, depth+1)
			g.nodes[idx] = node{
				feature:   s.feature,
				threshold: g.binned.edges[s.feature][s.bin],
				left:      l,
				right:     r,
			}
			return idx
		}
	}

	g.nodes[idx] = node{leaf: true, value: -G / (H + g.params.Lambda) * g.params.LearningRate}
	return idx
}

// bestSplit scans per-feature gradient histograms. Features are visited in
// the seeded order and only a strictly better gain replaces the incumbent.
func (g *grower) bestSplit(rows []int, G, H float64) (split, bool) {
	lambda := g.params.Lambda
	parent := G * G / (H + lambda)
	best := split{gain: minGain}
	found := false

	for _, f := range g.order {
		edges := g.binned.edges[f]
		if len(edges) < 2 {
			continue
		}
		gh := make([]float64, len(edges))
		hh := make([]float64, len(edges))
		bins := g.binned.bins[f]
		for _, i := range rows {
			gh[bins[i]] += g.grad[i]
			hh[bins[i]] += g.hess[i]
		}

		var GL, HL float64
		for b := 0; b < len(edges)-1; b++ {
			GL += gh[b]
			HL += hh[b]
			GR, HR := G-GL, H-HL
			if HL < g.params.MinChildWeight || HR < g.params.MinChildWeight {
				continue
			}
			gain := GL*GL/(HL+lambda) + GR*GR/(HR+lambda) - parent
			if gain > best.gain {
				best = split{feature: f, bin: b, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
