package core

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/pulse3d/pulse/utility/par"
)

// NewVulkanShader creates a Vulkan shader module from compiled bytecode
func NewVulkanShader(name string, shaderType ShaderType, contents []byte, device vk.Device) (Shader, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(contents)),
		PCode:    SliceUint32(contents),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(%s): %s", name, err.Error())
	}

	return &VulkanShader{
		shader:     shader,
		shaderType: shaderType,
		name:       name,
		device:     device,
	}, nil
}

// VulkanShader is a Vulkan specific shader
type VulkanShader struct {
	name       string
	shaderType ShaderType
	device     vk.Device
	shader     vk.ShaderModule
}

// Type implements interface
func (v VulkanShader) Type() ShaderType {
	return v.shaderType
}

// ShaderModule implements interface
func (v VulkanShader) ShaderModule() interface{} {
	return v.shader
}

// Name implements interface
func (v VulkanShader) Name() string {
	return v.name
}

// Destroy implements interface
func (v VulkanShader) Destroy() {
	vk.DestroyShaderModule(v.device, v.shader, nil)
}

// shaderBlob is a compiled shader before module creation
type shaderBlob struct {
	name       string
	shaderType ShaderType
	contents   []byte
}

// collectShaderBlobs gathers compiled bytecode from the configured
// sources: an embedded box, a .par archive, or a directory of .spv
// files, in that order. The first source that yields compiled blobs
// wins; a source holding only uncompiled files (a box of GLSL text,
// an empty directory) falls through to the next one.
func collectShaderBlobs(cfg RendererConfiguration) ([]shaderBlob, error) {
	if cfg.Shaders != nil {
		blobs, err := blobsFromSource(cfg.Shaders)
		if err != nil || len(blobs) > 0 {
			return blobs, err
		}
	}
	if cfg.ShaderArchive != "" {
		blobs, err := blobsFromArchive(cfg.ShaderArchive)
		if err != nil || len(blobs) > 0 {
			return blobs, err
		}
	}
	if cfg.ShaderDirectory != "" {
		return blobsFromDirectory(cfg.ShaderDirectory)
	}
	return nil, nil
}

func blobsFromSource(source ShaderSource) ([]shaderBlob, error) {
	var blobs []shaderBlob
	for _, name := range source.List() {
		shaderType := shaderTypeFromName(name)
		if shaderType == UnknownShaderType {
			continue
		}
		contents, err := source.Find(name)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, shaderBlob{
			name:       name,
			shaderType: shaderType,
			contents:   contents,
		})
	}
	return blobs, nil
}

func blobsFromArchive(path string) ([]shaderBlob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	archive, err := par.Open(f)
	if err != nil {
		return nil, err
	}

	var blobs []shaderBlob
	for _, name := range archive.List() {
		shaderType := shaderTypeFromName(name)
		if shaderType == UnknownShaderType {
			continue
		}
		contents, err := archive.ReadAll(name)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, shaderBlob{
			name:       name,
			shaderType: shaderType,
			contents:   contents,
		})
	}
	return blobs, nil
}

func blobsFromDirectory(dir string) ([]shaderBlob, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, types, err := loadShaderFilesFromDirectory(dir)
	if err != nil {
		return nil, err
	}

	blobs := make([]shaderBlob, 0, len(files))
	for idx, path := range files {
		contents, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, shaderBlob{
			name:       filepath.Base(path),
			shaderType: types[idx],
			contents:   contents,
		})
	}
	return blobs, nil
}

// shaderTypeFromName maps the name.stage.spv convention to a stage
func shaderTypeFromName(name string) ShaderType {
	trimmed := strings.TrimSuffix(name, shaderSuffix)
	if trimmed == name {
		return UnknownShaderType
	}
	switch {
	case strings.HasSuffix(trimmed, ".vert"):
		return VertexShaderType
	case strings.HasSuffix(trimmed, ".frag"):
		return FragmentShaderType
	default:
		return UnknownShaderType
	}
}

// validateShaders creates a module from every configured blob to prove
// the bytecode loads, then destroys them again. No pipeline consumes
// them in this renderer.
func (v *VulkanRenderer) validateShaders() error {
	blobs, err := collectShaderBlobs(v.configuration)
	if err != nil {
		return err
	}

	for _, blob := range blobs {
		shader, err := NewVulkanShader(blob.name, blob.shaderType, blob.contents, v.logicalDevice)
		if err != nil {
			return err
		}
		log.WithField("shader", blob.name).Debug("shader module validated")
		shader.Destroy()
	}
	return nil
}
