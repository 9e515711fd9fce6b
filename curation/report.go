package curation

// PhaseReport fasst eine PRISMA-Phase zusammen.
type PhaseReport struct {
	Phase       Phase          `json:"phase"`
	Total       int            `json:"total"`
	Excluded    int            `json:"excluded"`
	Remaining   int            `json:"remaining"`
	ByExclusion map[string]int `json:"byExclusion"`
}

// PrismaReport enthält die Zahlen für ein PRISMA-Flussdiagramm.
type PrismaReport struct {
	RecordsIdentified int           `json:"recordsIdentified"`
	DuplicatesRemoved int           `json:"duplicatesRemoved"`
	RecordsScreened   int           `json:"recordsScreened"`
	RecordsExcluded   int           `json:"recordsExcluded"`
	ReportsAssessed   int           `json:"reportsAssessed"`
	ReportsExcluded   int           `json:"reportsExcluded"`
	StudiesIncluded   int           `json:"studiesIncluded"`
	Phases            []PhaseReport `json:"phases"`
}

// BuildPrismaReport zählt pro Phase. Stubs in späteren Spalten haben die früheren
// Phasen bereits durchlaufen und werden dort mitgezählt. Ohne PRISMA-Modus ist
// das Ergebnis false.
func BuildPrismaReport(st State) (PrismaReport, bool) {
	if !st.PrismaConfig.IsPrisma || len(st.Columns) != len(prismaPhases) {
		return PrismaReport{}, false
	}
	var rep PrismaReport
	reached := make([]int, len(st.Columns))
	for i := range st.Columns {
		for j := i; j < len(st.Columns); j++ {
			reached[i] += len(st.Columns[j].StubStudies)
		}
	}
	for i, col := range st.Columns {
		phase := prismaPhases[i]
		pr := PhaseReport{Phase: phase, Total: reached[i], ByExclusion: map[string]int{}}
		for _, s := range col.StubStudies {
			if s.ExclusionTag != nil {
				pr.Excluded++
				pr.ByExclusion[s.ExclusionTag.Label]++
			}
		}
		pr.Remaining = pr.Total - pr.Excluded
		rep.Phases = append(rep.Phases, pr)
	}
	rep.RecordsIdentified = rep.Phases[0].Total
	rep.DuplicatesRemoved = rep.Phases[0].Excluded
	rep.RecordsScreened = rep.Phases[1].Total
	rep.RecordsExcluded = rep.Phases[1].Excluded
	rep.ReportsAssessed = rep.Phases[2].Total
	rep.ReportsExcluded = rep.Phases[2].Excluded
	rep.StudiesIncluded = rep.Phases[3].Remaining
	return rep, true
}
