// Package grouping arranges inventory items into the club -> player ->
// size tree the inventory views render. It is a pure transform: callers
// filter the input first, so the counters at every level describe exactly
// the items passed in.
package grouping

import (
	"kitflip/backend/internal/domain"
)

type StatusCounts struct {
	Total   int `json:"total"`
	InStock int `json:"in_stock"`
	Listed  int `json:"listed"`
	Sold    int `json:"sold"`
}

func (c *StatusCounts) add(status string) {
	c.Total++
	switch status {
	case domain.StatusInStock:
		c.InStock++
	case domain.StatusListed:
		c.Listed++
	case domain.StatusSold:
		c.Sold++
	}
}

type SizeGroup struct {
	Size   string                 `json:"size"`
	Counts StatusCounts           `json:"counts"`
	Items  []domain.InventoryItem `json:"items"`
}

type PlayerGroup struct {
	Player string       `json:"player"`
	Counts StatusCounts `json:"counts"`
	Sizes  []SizeGroup  `json:"sizes"`
}

type ClubGroup struct {
	Club    string        `json:"club"`
	Counts  StatusCounts  `json:"counts"`
	Players []PlayerGroup `json:"players"`
}

// Build groups items three levels deep. Groups appear in insertion order
// of first encounter, so a stable input ordering yields a stable tree.
// Items without a player name fall under the "No Name" group.
func Build(items []domain.InventoryItem) []ClubGroup {
	clubs := make([]ClubGroup, 0)
	clubIndex := make(map[string]int)
	playerIndex := make(map[string]map[string]int)
	sizeIndex := make(map[string]map[string]map[string]int)

	for _, item := range items {
		ci, ok := clubIndex[item.Club]
		if !ok {
			ci = len(clubs)
			clubIndex[item.Club] = ci
			clubs = append(clubs, ClubGroup{Club: item.Club})
			playerIndex[item.Club] = make(map[string]int)
			sizeIndex[item.Club] = make(map[string]map[string]int)
		}
		club := &clubs[ci]
		club.Counts.add(item.Status)

		playerName := item.PlayerName
		if playerName == "" {
			playerName = domain.PlayerNoName
		}

		pi, ok := playerIndex[item.Club][playerName]
		if !ok {
			pi = len(club.Players)
			playerIndex[item.Club][playerName] = pi
			club.Players = append(club.Players, PlayerGroup{Player: playerName})
			sizeIndex[item.Club][playerName] = make(map[string]int)
		}
		player := &club.Players[pi]
		player.Counts.add(item.Status)

		si, ok := sizeIndex[item.Club][playerName][item.Size]
		if !ok {
			si = len(player.Sizes)
			sizeIndex[item.Club][playerName][item.Size] = si
			player.Sizes = append(player.Sizes, SizeGroup{Size: item.Size})
		}
		size := &player.Sizes[si]
		size.Counts.add(item.Status)
		size.Items = append(size.Items, item)
	}

	return clubs
}
