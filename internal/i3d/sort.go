package i3d

import "sort"

func sortIDs(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortBySlotDesc(s *Scene, ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool {
		return s.Nodes[ids[i]].Slot > s.Nodes[ids[j]].Slot
	})
}
