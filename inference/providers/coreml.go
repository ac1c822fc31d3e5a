// Package providers - CoreML execution provider.
package providers

const (
	// CoreMLBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLBackend Backend = "coreml"
)

// CoreML flags, see coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly              uint32 = 0x001
	coreMLFlagEnableOnSubgraph        uint32 = 0x002
	coreMLFlagOnlyEnableDeviceWithANE uint32 = 0x004
	coreMLFlagOnlyAllowStaticShapes   uint32 = 0x008
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// CPUOnly limits CoreML to the CPU.
	CPUOnly bool `json:"cpuOnly" yaml:"cpuOnly"`
	// EnableOnSubgraphs lets CoreML run inside control flow operators.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs" yaml:"enableOnSubgraphs"`
	// RequireANE only enables CoreML on devices with an Apple Neural Engine.
	RequireANE bool `json:"requireANE" yaml:"requireANE"`
	// RequireStaticInputShapes only hands nodes with static input shapes to CoreML.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
}

// flags packs the options into the bit set AppendExecutionProviderCoreML takes.
func (o CoreMLOptions) flags() uint32 {
	var f uint32
	if o.CPUOnly {
		f |= coreMLFlagUseCPUOnly
	}
	if o.EnableOnSubgraphs {
		f |= coreMLFlagEnableOnSubgraph
	}
	if o.RequireANE {
		f |= coreMLFlagOnlyEnableDeviceWithANE
	}
	if o.RequireStaticInputShapes {
		f |= coreMLFlagOnlyAllowStaticShapes
	}
	return f
}
