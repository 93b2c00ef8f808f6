package scheduler

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/altafino/schedkit/internal/types"
)

// generateInstanceID produces an instance id using the named generator.
// "uuid" yields a random UUID, "hostname" the local host name.
func generateInstanceID(generator string) (string, error) {
	switch generator {
	case "uuid":
		return uuid.NewString(), nil
	case "hostname":
		host, err := os.Hostname()
		if err != nil {
			return "", &types.SchedulerError{
				Msg: "cannot derive instance id from hostname",
				Err: err,
			}
		}
		return host, nil
	default:
		return "", &types.SchedulerError{
			Msg: fmt.Sprintf("unknown instance id generator %q", generator),
		}
	}
}
