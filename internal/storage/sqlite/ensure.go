package sqlite

import (
	"github.com/felixgeelhaar/caliper/internal/content"
	"github.com/felixgeelhaar/caliper/internal/placement"
	"github.com/felixgeelhaar/caliper/internal/plan"
	"github.com/felixgeelhaar/caliper/internal/profile"
	"github.com/felixgeelhaar/caliper/internal/question"
)

// Compile-time interface checks.
var (
	_ placement.TestStore = (*TestStore)(nil)
	_ content.Store       = (*ContentStore)(nil)
	_ question.BankStore  = (*ContentStore)(nil)
	_ profile.Store       = (*ProfileStore)(nil)
	_ plan.Store          = (*PlanStore)(nil)
	_ plan.TestSource     = (*TestStore)(nil)
)
