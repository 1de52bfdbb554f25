package contractkit

// UnknownPolicy controls how keys that a Pattern does not declare are handled.
type UnknownPolicy int

const (
	UnknownStrict UnknownPolicy = iota // Reject unknown keys with a failure.
	UnknownIgnore                      // Accept and ignore unknown keys.
)

func (p UnknownPolicy) String() string {
	if p == UnknownIgnore {
		return "ignore"
	}
	return "strict"
}
