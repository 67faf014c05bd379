package domain

// MediaKind is the classification of a media file
type MediaKind string

const (
	// KindUnknown means the file type couldn't be detected
	KindUnknown MediaKind = "unknown"
	// KindImage covers still and animated images
	KindImage MediaKind = "image"
	// KindVideo covers video streams
	KindVideo MediaKind = "video"
)

// Mode is the navigator state
type Mode int

const (
	// Flat means only the top-level sequence is active
	Flat Mode = iota
	// InAlbum means a multi-member archive is unpacked as a nested sequence
	InAlbum
)

func (m Mode) String() string {
	switch m {
	case Flat:
		return "flat"
	case InAlbum:
		return "album"
	default:
		return "unknown"
	}
}

// CaptionPair is a resolved entry: the media to display and the caption text file.
// Both paths exist on disk at the time the pair is returned.
type CaptionPair struct {
	Media   string
	Caption string
}

// ScreenResolution holds the display dimensions
type ScreenResolution struct {
	Width  int
	Height int
}
