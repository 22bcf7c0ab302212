package structurer

import "fmt"

func errStructurer(op string, kind interface{ String() string }) error {
	return fmt.Errorf("structurer: %s called on %s, want BlockContainer", op, kind.String())
}
