package resolver

import (
	"github.com/genricoloni/capview/internal/archive"
	"github.com/genricoloni/capview/internal/domain"
)

// EntryKind describes how an entry would resolve, without extracting anything
type EntryKind string

const (
	KindMedia        EntryKind = "media"
	KindText         EntryKind = "text"
	KindCaption      EntryKind = "caption"
	KindAlbum        EntryKind = "album"
	KindEmptyArchive EntryKind = "empty archive"
)

// Inspect reports the kind of entry at path and, for archives, the member count
func Inspect(arc domain.Archive, path string) (EntryKind, int, error) {
	switch {
	case archive.IsArchive(path):
		members, err := arc.Members(path)
		if err != nil {
			return "", 0, err
		}
		texts, others := partition(members)
		switch {
		case len(texts) == 1 && len(others) == 1:
			return KindCaption, len(members), nil
		case len(members) == 0:
			return KindEmptyArchive, 0, nil
		default:
			return KindAlbum, len(members), nil
		}
	case isText(path):
		return KindText, 0, nil
	default:
		return KindMedia, 0, nil
	}
}
