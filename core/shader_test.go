package core

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

type stubShaderSource struct {
	files map[string][]byte
}

func (s stubShaderSource) List() []string {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	return names
}

func (s stubShaderSource) Find(name string) ([]byte, error) {
	contents, ok := s.files[name]
	if !ok {
		return nil, errors.New("no such file: " + name)
	}
	return contents, nil
}

func TestCollectShaderBlobsFromSource(t *testing.T) {
	c := qt.New(t)

	blobs, err := collectShaderBlobs(RendererConfiguration{
		Shaders: stubShaderSource{files: map[string][]byte{
			"triangle.vert.spv": {0x03, 0x02, 0x23, 0x07},
		}},
		ShaderDirectory: "/definitely/not/a/real/path",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(len(blobs), qt.Equals, 1)
	c.Assert(blobs[0].name, qt.Equals, "triangle.vert.spv")
	c.Assert(blobs[0].shaderType, qt.Equals, VertexShaderType)
}

func TestCollectShaderBlobsFallsThroughEmptySource(t *testing.T) {
	c := qt.New(t)

	dir, err := ioutil.TempDir("", "shaderFallthroughTest")
	c.Assert(err, qt.IsNil)
	defer os.RemoveAll(dir)

	compiled := []byte{0x03, 0x02, 0x23, 0x07}
	c.Assert(ioutil.WriteFile(filepath.Join(dir, "triangle.frag.spv"), compiled, 0644), qt.IsNil)

	// a box holding only GLSL sources carries no compiled bytecode,
	// the directory of .spv files must still be consulted
	blobs, err := collectShaderBlobs(RendererConfiguration{
		Shaders: stubShaderSource{files: map[string][]byte{
			"triangle.vert": []byte("#version 450"),
			"triangle.frag": []byte("#version 450"),
		}},
		ShaderDirectory: dir,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(len(blobs), qt.Equals, 1)
	c.Assert(blobs[0].name, qt.Equals, "triangle.frag.spv")
	c.Assert(blobs[0].shaderType, qt.Equals, FragmentShaderType)
	c.Assert(blobs[0].contents, qt.DeepEquals, compiled)
}
