// Package board holds board setup helpers on top of the model's grid logic.
package board

import (
	"fmt"

	"github.com/portside/battleship/internal/dependencies/random"
	"github.com/portside/battleship/internal/model"
)

// maxPlacementAttempts bounds the rejection-sampling loop per ship; a 10x10
// grid never comes close to exhausting it
const maxPlacementAttempts = 1000

// RandomFleet places the full catalogue on the board at random, used to set
// up the server's board for solo games
func RandomFleet(b *model.Board, rnd random.Random) error {
	for _, spec := range model.Fleet {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			orientation := model.Horizontal
			if rnd.Intn(2) == 1 {
				orientation = model.Vertical
			}
			origin := model.Coordinate{
				Row: rnd.Intn(b.Size),
				Col: rnd.Intn(b.Size),
			}

			if err := b.Place(string(spec.Name), origin, orientation); err == nil {
				placed = true
				break
			}
		}
		if !placed {
			return fmt.Errorf("could not place %s after %d attempts", spec.Name, maxPlacementAttempts)
		}
	}
	return nil
}
