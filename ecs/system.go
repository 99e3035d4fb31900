package ecs

// System is a behaviour run once per frame by a Scheduler. Exported fields of
// type Query, View or Singleton are bound to the scheduler's storage when the
// system is registered; other fields are free state kept between frames.
type System interface {
	Execute(frame *UpdateFrame)
}
