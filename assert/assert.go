package assert

import "github.com/oomph-ac/netmove/oerror"

// IsTrue panics with an oerror when ok is false. It guards conditions that only a
// programming mistake can break.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(oerror.New(message, args...))
	}
}
