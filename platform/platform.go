package platform

import "strconv"

// PropPCIDomain is the property naming a bridge's declared PCI domain.
const PropPCIDomain = "pci-domain"

// Node is one node of the firmware-provided platform description. Nodes
// form a tree mirroring the hardware topology; a host bridge's parent node
// may carry the properties the PCI core consults.
type Node struct {
	name   string
	parent *Node
	props  map[string]string
}

func NewNode(name string, parent *Node) *Node {
	return &Node{name: name, parent: parent, props: map[string]string{}}
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) SetProperty(key, value string) {
	n.props[key] = value
}

func (n *Node) Property(key string) (string, bool) {
	v, ok := n.props[key]

	return v, ok
}

// PCIDomain returns the domain number declared for this node. The second
// return is false when the node is absent, carries no such property, or
// the property is not a non-negative integer.
func (n *Node) PCIDomain() (int, bool) {
	if n == nil {
		return 0, false
	}

	v, ok := n.props[PropPCIDomain]
	if !ok {
		return 0, false
	}

	d, err := strconv.Atoi(v)
	if err != nil || d < 0 {
		return 0, false
	}

	return d, true
}
