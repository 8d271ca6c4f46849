package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CONSORCIA_TEST_MODE") == "" {
			_ = os.Setenv("CONSORCIA_TEST_MODE", "1")
		}
	})
}
