package core

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestShaderTypeFromName(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		want ShaderType
	}{
		{"triangle.vert.spv", VertexShaderType},
		{"triangle.frag.spv", FragmentShaderType},
		{"shaders/nested.vert.spv", VertexShaderType},
		{"triangle.comp.spv", UnknownShaderType},
		{"triangle.vert", UnknownShaderType},
		{"readme.txt", UnknownShaderType},
		{"", UnknownShaderType},
	}

	for _, test := range tests {
		c.Assert(shaderTypeFromName(test.name), qt.Equals, test.want, qt.Commentf("name %q", test.name))
	}
}

func TestSafeString(t *testing.T) {
	c := qt.New(t)

	c.Assert(safeString("VK_KHR_swapchain"), qt.Equals, "VK_KHR_swapchain\x00")
	c.Assert(safeString("VK_KHR_swapchain\x00"), qt.Equals, "VK_KHR_swapchain\x00")
	c.Assert(safeString(""), qt.Equals, "\x00")

	got := safeStrings([]string{"a", "b\x00"})
	c.Assert(got, qt.DeepEquals, []string{"a\x00", "b\x00"})
}

func TestLoadShaderFilesFromDirectory(t *testing.T) {
	c := qt.New(t)

	dir, err := ioutil.TempDir("", "shaderWalkTest")
	c.Assert(err, qt.IsNil)
	defer os.RemoveAll(dir)

	files := map[string][]byte{
		"triangle.vert.spv": []byte{0x03, 0x02, 0x23, 0x07},
		"triangle.frag.spv": []byte{0x03, 0x02, 0x23, 0x07},
		"notashader.spv":    []byte{0x00},
		"source.vert":       []byte("#version 450"),
	}
	for name, contents := range files {
		c.Assert(ioutil.WriteFile(filepath.Join(dir, name), contents, 0644), qt.IsNil)
	}

	paths, types, err := loadShaderFilesFromDirectory(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(len(paths), qt.Equals, 2)
	c.Assert(len(types), qt.Equals, 2)

	for idx, path := range paths {
		switch filepath.Base(path) {
		case "triangle.vert.spv":
			c.Assert(types[idx], qt.Equals, VertexShaderType)
		case "triangle.frag.spv":
			c.Assert(types[idx], qt.Equals, FragmentShaderType)
		default:
			c.Errorf("unexpected shader file %s", path)
		}
	}
}

func TestCollectShaderBlobsDirectoryMissing(t *testing.T) {
	c := qt.New(t)

	blobs, err := collectShaderBlobs(RendererConfiguration{
		ShaderDirectory: "/definitely/not/a/real/path",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(blobs, qt.IsNil)
}
