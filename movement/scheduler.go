package movement

import "time"

// Scheduler steps every task once per Update and drops finished ones.
type Scheduler struct {
	tasks []Task
}

func NewScheduler(tasks ...Task) *Scheduler {
	s := &Scheduler{}
	for _, t := range tasks {
		s.Add(t)
	}
	return s
}

func (s *Scheduler) Add(task Task) {
	if task == nil {
		return
	}
	s.tasks = append(s.tasks, task)
}

// Update steps the current tasks. Tasks added while stepping run on the next
// Update.
func (s *Scheduler) Update(dt time.Duration) {
	tasks := s.tasks
	s.tasks = nil
	kept := tasks[:0]
	for _, task := range tasks {
		if task.Step(dt) == Running {
			kept = append(kept, task)
		}
	}
	for i := len(kept); i < len(tasks); i++ {
		tasks[i] = nil
	}
	s.tasks = append(kept, s.tasks...)
}

func (s *Scheduler) Len() int {
	return len(s.tasks)
}
