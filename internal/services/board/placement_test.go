package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portside/battleship/internal/dependencies/mocks"
	"github.com/portside/battleship/internal/dependencies/random"
	"github.com/portside/battleship/internal/model"
)

func TestRandomFleetPlacesFullCatalogue(t *testing.T) {
	b := model.NewBoard(model.DefaultBoardSize)
	require.NoError(t, RandomFleet(b, random.New()))

	assert.True(t, b.FleetComplete())

	occupied := 0
	for _, ship := range b.Ships {
		occupied += len(ship.Cells())
	}
	total := 0
	for _, spec := range model.Fleet {
		total += spec.Length
	}
	assert.Equal(t, total, occupied, "no ship may overlap another")
}

func TestRandomFleetRetriesRejectedPlacements(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// first attempt for every ship lands on row 1 column A and collides
	// with the carrier; the retry moves down a row
	rnd.QueueIntn(0, 0, 0) // carrier
	for row := 1; row < len(model.Fleet); row++ {
		rnd.QueueIntn(0, 0, 0) // rejected: overlaps the carrier
		rnd.QueueIntn(0, row, 0)
	}

	b := model.NewBoard(model.DefaultBoardSize)
	require.NoError(t, RandomFleet(b, rnd))
	assert.True(t, b.FleetComplete())
}

func TestRandomFleetGivesUpWhenBoardTooSmall(t *testing.T) {
	// a 3x3 board cannot hold the carrier at all
	b := model.NewBoard(3)
	err := RandomFleet(b, random.New())
	assert.Error(t, err)
}
