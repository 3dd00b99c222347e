package recording

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdBindPipeline CommandType = iota // Bind a pipeline state
	CmdDraw                            // Issue an instanced draw
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBindPipeline: "BindPipeline",
	CmdDraw:         "Draw",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// PipelineRef is a reference to a pipeline state in the resource pool.
// The zero value is a valid reference to the first state (if any).
type PipelineRef uint32

// InvalidRef is a sentinel value indicating an invalid or missing reference.
const InvalidRef = ^uint32(0)

// IsValid returns true if the reference is valid (not InvalidRef).
func (r PipelineRef) IsValid() bool {
	return uint32(r) != InvalidRef
}

// BindPipelineCommand makes a pipeline current for subsequent draws.
type BindPipelineCommand struct {
	Pipeline PipelineRef
}

// Type implements Command.
func (BindPipelineCommand) Type() CommandType { return CmdBindPipeline }

// DrawCommand draws InstanceCount instances of VertexCount vertices with the
// current pipeline. Instances are numbered from FirstInstance within the
// buffer that recorded the draw.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstInstance uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }
