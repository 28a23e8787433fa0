// Package lifecycle orders the construction and destruction of GPU objects.
//
// A Pipeline runs named build steps in order and, when asked to tear down,
// releases only the steps that completed, newest first. A Stack is the
// same idea inside a single step: it collects release actions for objects
// created so far and either unwinds them on failure or is disarmed once the
// step hands ownership to its caller.
package lifecycle

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"golang.org/x/exp/slog"
)

// Step is one named stage of construction.
type Step struct {
	Name     string
	Build    func() error
	Teardown func()
}

// Pipeline runs steps in insertion order and tears down completed steps in
// reverse.
type Pipeline struct {
	logger    *slog.Logger
	steps     []Step
	completed []Step
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logging.OrDiscard(logger)}
}

// Add appends a step. teardown may be nil for steps that own nothing.
func (p *Pipeline) Add(name string, build func() error, teardown func()) {
	p.steps = append(p.steps, Step{Name: name, Build: build, Teardown: teardown})
}

// Run builds every step that has not run yet. If a step fails, the steps
// that completed are torn down and the error is returned wrapped with the
// failing step's name.
func (p *Pipeline) Run() error {
	for _, step := range p.steps[len(p.completed):] {
		p.logger.Debug("building", slog.String("step", step.Name))

		if err := step.Build(); err != nil {
			p.Teardown()
			return errors.Wrapf(err, "%s", step.Name)
		}
		p.completed = append(p.completed, step)
	}

	return nil
}

// Teardown releases completed steps newest first. Calling it again is a
// no-op until Run completes more steps.
func (p *Pipeline) Teardown() {
	for i := len(p.completed) - 1; i >= 0; i-- {
		step := p.completed[i]
		if step.Teardown == nil {
			continue
		}

		p.logger.Debug("tearing down", slog.String("step", step.Name))
		step.Teardown()
	}
	p.completed = nil
	p.steps = p.steps[:0]
}

// Completed lists the names of the steps currently built, oldest first.
func (p *Pipeline) Completed() []string {
	names := make([]string, 0, len(p.completed))
	for _, step := range p.completed {
		names = append(names, step.Name)
	}
	return names
}
