package agents

import (
	"fmt"
)

// AgentError represents a general agent processing error
type AgentError struct {
	Agent   string
	Message string
	Cause   error
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent %s: %s: %v", e.Agent, e.Message, e.Cause)
	}
	return fmt.Sprintf("agent %s: %s", e.Agent, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// NewAgentError creates a new agent error
func NewAgentError(agent, message string, cause error) *AgentError {
	return &AgentError{
		Agent:   agent,
		Message: message,
		Cause:   cause,
	}
}
