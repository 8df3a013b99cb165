package role

// Actor is the role of whoever caused an event.
type Actor string

const (
	User   = Actor("user")
	Admin  = Actor("admin")
	System = Actor("system")
)

func (a Actor) String() string {
	return string(a)
}

func IsActorValid[T Actor | string](role T) bool {
	switch Actor(role) {
	case User, Admin, System:
		return true
	default:
		return false
	}
}
