package model

// Well-known service ids with special handling during generation.
const (
	VPNSidecarID     = "gluetun"
	DownloadClientID = "qbittorrent"
	MaintenanceID    = "watchtower"

	SharedNetwork = "media-network"
)

// Selection is the ordered list of service ids chosen for a run.
type Selection []string

// Contains reports whether id is selected.
func (s Selection) Contains(id string) bool {
	return s.Index(id) >= 0
}

// Index returns the position of id, or -1.
func (s Selection) Index(id string) int {
	for i, item := range s {
		if item == id {
			return i
		}
	}
	return -1
}

// WithFirst returns a copy of s with id moved (or inserted) at the front.
func (s Selection) WithFirst(id string) Selection {
	out := make(Selection, 0, len(s)+1)
	out = append(out, id)
	for _, item := range s {
		if item != id {
			out = append(out, item)
		}
	}
	return out
}
