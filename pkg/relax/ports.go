package relax

import "github.com/matzehuels/noderelax/pkg/nodegraph"

// PortFraction returns the vertical offset of port within a node of the
// given height. Only connected ports are counted: the i-th connected port
// out of n sits at i/n*height. Unknown or unconnected ports sit at the
// midpoint.
func PortFraction(port *nodegraph.Port, ports []*nodegraph.Port, height float64) float64 {
	index, count := -1, 0
	for _, p := range ports {
		if !p.Connected() {
			continue
		}
		if p == port {
			index = count
		}
		count++
	}
	if index < 0 {
		return height / 2
	}
	return float64(index) / float64(count) * height
}
