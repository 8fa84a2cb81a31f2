package division

import (
	"fmt"
	"sort"

	"schoolmanager-server-go/models"
)

// Verify checks the consistency rules every processed state satisfies: each
// class count matches its pupils, stays within capacity, and its follow-up
// numbers are exactly 1..count.
func Verify(state models.State) error {
	members := make(map[string][]int, len(state.Classes))
	for _, p := range state.Pupils {
		if p.Assigned() {
			members[p.ClassName] = append(members[p.ClassName], p.FollowUpNumber)
		}
	}

	for _, c := range state.Classes {
		numbers := members[c.ClassName]
		if c.AmountOfPupils != len(numbers) {
			return fmt.Errorf("class %s: amount of pupils %d, counted %d", c.ClassName, c.AmountOfPupils, len(numbers))
		}
		if c.AmountOfPupils > c.MaxAmountOfPupils {
			return fmt.Errorf("class %s: amount of pupils %d exceeds maximum %d", c.ClassName, c.AmountOfPupils, c.MaxAmountOfPupils)
		}

		sort.Ints(numbers)
		for i, n := range numbers {
			if n != i+1 {
				return fmt.Errorf("class %s: follow-up numbers %v are not contiguous from 1", c.ClassName, numbers)
			}
		}
	}

	return nil
}
