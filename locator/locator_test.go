package locator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-varma-group/qrgate/locator"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected locator.Classification
	}{
		{
			name: "folder",
			url:  "https://drive.google.com/drive/folders/1AbC_d-EfG",
			expected: locator.Classification{
				Kind:   locator.KindContainer,
				ItemID: "1AbC_d-EfG",
			},
		},
		{
			name: "folder with user path",
			url:  "https://drive.google.com/drive/u/0/folders/1AbC_d-EfG",
			expected: locator.Classification{
				Kind:   locator.KindContainer,
				ItemID: "1AbC_d-EfG",
			},
		},
		{
			name: "file",
			url:  "https://drive.google.com/file/d/1XyZ/view?usp=sharing",
			expected: locator.Classification{
				Kind:       locator.KindFile,
				ItemID:     "1XyZ",
				PreviewURL: "https://drive.google.com/file/d/1XyZ/preview",
			},
		},
		{
			name: "open link",
			url:  "https://drive.google.com/open?id=1XyZ",
			expected: locator.Classification{
				Kind:       locator.KindFile,
				ItemID:     "1XyZ",
				PreviewURL: "https://drive.google.com/file/d/1XyZ/preview",
			},
		},
		{
			name: "document",
			url:  "https://docs.google.com/document/d/1Doc/edit",
			expected: locator.Classification{
				Kind:       locator.KindFile,
				ItemID:     "1Doc",
				PreviewURL: "https://docs.google.com/document/d/1Doc/preview",
			},
		},
		{
			name: "spreadsheet",
			url:  "https://docs.google.com/spreadsheets/d/1Sheet/edit#gid=0",
			expected: locator.Classification{
				Kind:       locator.KindFile,
				ItemID:     "1Sheet",
				PreviewURL: "https://docs.google.com/spreadsheets/d/1Sheet/preview",
			},
		},
		{
			name: "presentation",
			url:  "https://docs.google.com/presentation/d/1Slides/edit",
			expected: locator.Classification{
				Kind:       locator.KindFile,
				ItemID:     "1Slides",
				PreviewURL: "https://docs.google.com/presentation/d/1Slides/preview",
			},
		},
		{
			name: "unknown passes through",
			url:  "https://example.com/some/page",
			expected: locator.Classification{
				Kind:       locator.KindUnknown,
				PreviewURL: "https://example.com/some/page",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, locator.Classify(test.url))
		})
	}
}

func TestLinks(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/file/d/abc/view", locator.FileLink("abc"))
	assert.Equal(t, "https://drive.google.com/drive/folders/abc", locator.ContainerLink("abc"))
	assert.Equal(t, "https://drive.google.com/file/d/abc/preview", locator.PreviewLink("abc"))
}
