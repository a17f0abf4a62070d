package model

// CloneDirectory returns a deep copy of a directory tree. Tree transforms
// operate on fresh copies so that pre- and post-transform trees never
// alias each other.
func CloneDirectory(d *Directory) *Directory {
	if d == nil {
		return nil
	}
	out := &Directory{Type: NodeTypeDirectory, Entries: make([]Entry, 0, len(d.Entries))}
	for _, e := range d.Entries {
		out.Entries = append(out.Entries, Entry{Name: e.Name, Node: CloneNode(e.Node)})
	}
	return out
}

// CloneNode deep-copies any node of the union
func CloneNode(n Node) Node {
	switch v := n.(type) {
	case *File:
		f := *v
		if v.Blob != nil {
			b := *v.Blob
			f.Blob = &b
		}
		return &f
	case *Directory:
		return CloneDirectory(v)
	case *Subfs:
		s := *v
		if v.Flat != nil {
			flat := *v.Flat
			s.Flat = &flat
		}
		return &s
	case *UnknownNode:
		raw := make([]byte, len(v.Raw))
		copy(raw, v.Raw)
		return &UnknownNode{TypeName: v.TypeName, Raw: raw}
	default:
		return nil
	}
}
