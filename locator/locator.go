// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

// Package locator classifies storage-provider URLs. Given a raw URL it
// decides whether the target is a single document or a container and
// derives an embeddable preview address. All functions are pure.
package locator

import "regexp"

type Kind string

const (
	KindFile      Kind = "file"
	KindContainer Kind = "container"
	KindUnknown   Kind = "unknown"
)

// Classification is the result of Classify. PreviewURL is empty for
// containers (they cannot be embedded; callers browse the snapshot
// instead) and carries the original URL unchanged for unknown shapes.
type Classification struct {
	Kind       Kind
	ItemID     string
	PreviewURL string
}

var (
	folderPattern       = regexp.MustCompile(`drive\.google\.com/drive/(?:u/\d+/)?folders/([A-Za-z0-9_-]+)`)
	filePattern         = regexp.MustCompile(`drive\.google\.com/file/d/([A-Za-z0-9_-]+)`)
	openPattern         = regexp.MustCompile(`drive\.google\.com/open\?id=([A-Za-z0-9_-]+)`)
	documentPattern     = regexp.MustCompile(`docs\.google\.com/document/d/([A-Za-z0-9_-]+)`)
	spreadsheetPattern  = regexp.MustCompile(`docs\.google\.com/spreadsheets/d/([A-Za-z0-9_-]+)`)
	presentationPattern = regexp.MustCompile(`docs\.google\.com/presentation/d/([A-Za-z0-9_-]+)`)
)

func Classify(rawURL string) Classification {
	if m := folderPattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:   KindContainer,
			ItemID: m[1],
		}
	}
	if m := filePattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:       KindFile,
			ItemID:     m[1],
			PreviewURL: "https://drive.google.com/file/d/" + m[1] + "/preview",
		}
	}
	if m := openPattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:       KindFile,
			ItemID:     m[1],
			PreviewURL: "https://drive.google.com/file/d/" + m[1] + "/preview",
		}
	}
	if m := documentPattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:       KindFile,
			ItemID:     m[1],
			PreviewURL: "https://docs.google.com/document/d/" + m[1] + "/preview",
		}
	}
	if m := spreadsheetPattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:       KindFile,
			ItemID:     m[1],
			PreviewURL: "https://docs.google.com/spreadsheets/d/" + m[1] + "/preview",
		}
	}
	if m := presentationPattern.FindStringSubmatch(rawURL); m != nil {
		return Classification{
			Kind:       KindFile,
			ItemID:     m[1],
			PreviewURL: "https://docs.google.com/presentation/d/" + m[1] + "/preview",
		}
	}
	return Classification{
		Kind:       KindUnknown,
		PreviewURL: rawURL,
	}
}

// FileLink returns the canonical view URL for a single file.
func FileLink(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}

// ContainerLink returns the canonical URL for a folder.
func ContainerLink(id string) string {
	return "https://drive.google.com/drive/folders/" + id
}

// PreviewLink returns the embeddable preview URL for a single file.
func PreviewLink(id string) string {
	return "https://drive.google.com/file/d/" + id + "/preview"
}
