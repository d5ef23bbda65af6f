package files

// ChangeKind mirrors the host watcher's create/change/delete notion.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeChanged
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeChanged:
		return "changed"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChangeEvent is one entry of a watched-file batch. Batches carry no
// ordering guarantee across unrelated files.
type FileChangeEvent struct {
	URI  string
	Kind ChangeKind
}

// Partition splits a batch by category, dropping CategoryOther events.
func Partition(events []FileChangeEvent) (manifests, sources []FileChangeEvent) {
	for _, ev := range events {
		switch Classify(ev.URI).Category {
		case CategoryManifest:
			manifests = append(manifests, ev)
		case CategorySource:
			sources = append(sources, ev)
		}
	}
	return manifests, sources
}
