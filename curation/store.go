package curation

import "strings"

// Store ist der Zustandshandle eines geöffneten Projekts. Er wird beim Laden eines
// Projekts erzeugt und an die Aufrufer weitergereicht; er ist nicht nebenläufig sicher.
//
// Alle Mutationen liefern zurück, ob sie angewendet wurden. Nicht gefundene Spalten
// oder Stubs führen zu einem No-op, nie zu einem Fehler.
type Store struct {
	state State
}

// NewStore übernimmt eine Kopie des geladenen Zustands.
func NewStore(st State) *Store {
	return &Store{state: st.Clone()}
}

// State liefert den aktuellen Zustand zur Persistierung oder Projektion.
func (s *Store) State() State {
	return s.state
}

// Columns liefert die Spalten in Pipeline-Reihenfolge.
func (s *Store) Columns() []Column {
	return s.state.Columns
}

// IsPrisma meldet, ob das Projekt im PRISMA-Modus läuft.
func (s *Store) IsPrisma() bool {
	return s.state.PrismaConfig.IsPrisma
}

func (s *Store) column(idx int) *Column {
	if idx < 0 || idx >= len(s.state.Columns) {
		return nil
	}
	return &s.state.Columns[idx]
}

func indexOfStub(col *Column, stubID string) int {
	for i := range col.StubStudies {
		if col.StubStudies[i].ID == stubID {
			return i
		}
	}
	return -1
}

// stub liefert einen Pointer auf den Stub in der angegebenen Spalte oder nil.
func (s *Store) stub(columnIndex int, stubID string) *StubStudy {
	col := s.column(columnIndex)
	if col == nil {
		return nil
	}
	i := indexOfStub(col, stubID)
	if i < 0 {
		return nil
	}
	return &col.StubStudies[i]
}

// FindStub sucht einen Stub über alle Spalten und liefert den Spaltenindex.
func (s *Store) FindStub(stubID string) (StubStudy, int, bool) {
	for ci := range s.state.Columns {
		if i := indexOfStub(&s.state.Columns[ci], stubID); i >= 0 {
			return s.state.Columns[ci].StubStudies[i], ci, true
		}
	}
	return StubStudy{}, -1, false
}

// move entfernt den Stub aus from und hängt ihn an to an. Beide Indizes müssen gültig sein.
func (s *Store) move(from, to int, stubID string) bool {
	src, dst := s.column(from), s.column(to)
	if src == nil || dst == nil {
		return false
	}
	i := indexOfStub(src, stubID)
	if i < 0 {
		return false
	}
	stub := src.StubStudies[i]
	src.StubStudies = append(src.StubStudies[:i:i], src.StubStudies[i+1:]...)
	dst.StubStudies = append(dst.StubStudies, stub)
	return true
}

// PromoteStub verschiebt einen Stub eine Stufe weiter.
func (s *Store) PromoteStub(columnIndex int, stubID string) bool {
	if columnIndex >= len(s.state.Columns)-1 {
		return false
	}
	return s.move(columnIndex, columnIndex+1, stubID)
}

// DemoteStub verschiebt einen Stub eine Stufe zurück.
func (s *Store) DemoteStub(columnIndex int, stubID string) bool {
	if columnIndex <= 0 {
		return false
	}
	return s.move(columnIndex, columnIndex-1, stubID)
}

// SetExclusionForStub setzt oder löscht (tag == nil) den Ausschluss eines Stubs.
// Der Stub bleibt in seiner Spalte.
func (s *Store) SetExclusionForStub(columnIndex int, stubID string, tag *Tag) bool {
	stub := s.stub(columnIndex, stubID)
	if stub == nil {
		return false
	}
	if tag == nil {
		stub.ExclusionTag = nil
		return true
	}
	t := *tag
	t.IsExclusionTag = true
	stub.ExclusionTag = &t
	return true
}

// AddTagToStub fügt ein informatives Tag hinzu, sofern es noch nicht gesetzt ist.
func (s *Store) AddTagToStub(columnIndex int, stubID string, tag Tag) bool {
	stub := s.stub(columnIndex, stubID)
	if stub == nil || stub.HasTag(tag.ID) {
		return false
	}
	stub.Tags = append(stub.Tags, tag)
	return true
}

// RemoveTagFromStub entfernt ein informatives Tag.
func (s *Store) RemoveTagFromStub(columnIndex int, stubID string, tagID string) bool {
	stub := s.stub(columnIndex, stubID)
	if stub == nil {
		return false
	}
	for i, t := range stub.Tags {
		if t.ID == tagID {
			stub.Tags = append(stub.Tags[:i:i], stub.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateStubField setzt ein bibliographisches Feld. Wird die PMID geändert und zeigt der
// Artikellink auf PubMed, wird der Link aus der neuen PMID neu erzeugt.
func (s *Store) UpdateStubField(columnIndex int, stubID string, field Field, value string) bool {
	stub := s.stub(columnIndex, stubID)
	if stub == nil {
		return false
	}
	if !field.set(stub, value) {
		return false
	}
	if field == FieldPMID && strings.HasPrefix(stub.ArticleLink, PubMedURLPrefix) {
		stub.ArticleLink = PubMedURLPrefix + value
	}
	return true
}

// CreateNewExclusion registriert ein Ausschluss-Tag. Im PRISMA-Modus landet es in der
// Liste von Screening oder Eligibility. Die Identifikation kennt nur den Duplikat-Bucket,
// ohne solche Phase wird nichts registriert. Im einfachen Modus landet es in der
// generischen Liste.
func (s *Store) CreateNewExclusion(tag Tag, phase Phase) bool {
	tag.IsExclusionTag = true
	target := &s.state.ExclusionTags
	if s.state.PrismaConfig.IsPrisma {
		if phase == PhaseIdentification {
			return false
		}
		target = s.state.PrismaConfig.phaseTags(phase)
		if target == nil {
			return false
		}
	}
	for _, t := range *target {
		if t.ID == tag.ID {
			return false
		}
	}
	*target = append(*target, tag)
	return true
}

// CreateInfoTag registriert ein informatives Tag.
func (s *Store) CreateInfoTag(tag Tag) bool {
	tag.IsExclusionTag = false
	for _, t := range s.state.InfoTags {
		if t.ID == tag.ID {
			return false
		}
	}
	s.state.InfoTags = append(s.state.InfoTags, tag)
	return true
}

// ExclusionTagByID sucht ein Ausschluss-Tag in der generischen und allen Phasenlisten.
func (s *Store) ExclusionTagByID(id string) (Tag, bool) {
	lists := [][]Tag{
		s.state.ExclusionTags,
		s.state.PrismaConfig.Identification.ExclusionTags,
		s.state.PrismaConfig.Screening.ExclusionTags,
		s.state.PrismaConfig.Eligibility.ExclusionTags,
	}
	for _, l := range lists {
		for _, t := range l {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Tag{}, false
}

// ExclusionTagForColumn sucht ein Ausschluss-Tag, das in der Spalte vergeben werden darf:
// im PRISMA-Modus nur Tags der Phase der Spalte, sonst die generische Liste.
func (s *Store) ExclusionTagForColumn(columnIndex int, id string) (Tag, bool) {
	tags := s.state.ExclusionTags
	if s.state.PrismaConfig.IsPrisma {
		phase, ok := PhaseForColumn(columnIndex)
		if !ok {
			return Tag{}, false
		}
		tags = s.state.PrismaConfig.TagsForPhase(phase)
		if phase == PhaseIdentification && len(tags) > 1 {
			tags = tags[:1]
		}
	}
	for _, t := range tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// InfoTagByID sucht ein informatives Tag.
func (s *Store) InfoTagByID(id string) (Tag, bool) {
	for _, t := range s.state.InfoTags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// AddImport fügt einen Import samt seiner Stubs in einem Schritt hinzu. Die Stubs
// landen in der ersten Spalte und bekommen die Import-ID.
func (s *Store) AddImport(imp Import, stubs []StubStudy) bool {
	first := s.column(0)
	if first == nil {
		return false
	}
	for i := range stubs {
		stubs[i].ImportID = imp.ID
	}
	imp.NumImported = len(stubs)
	first.StubStudies = append(first.StubStudies, stubs...)
	s.state.Imports = append(s.state.Imports, imp)
	return true
}

// DeleteImport entfernt einen Import und alle Stubs mit seiner ID aus allen Spalten.
func (s *Store) DeleteImport(importID string) bool {
	idx := -1
	for i, imp := range s.state.Imports {
		if imp.ID == importID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for ci := range s.state.Columns {
		col := &s.state.Columns[ci]
		kept := col.StubStudies[:0]
		for _, stub := range col.StubStudies {
			if stub.ImportID != importID {
				kept = append(kept, stub)
			}
		}
		col.StubStudies = kept
	}
	s.state.Imports = append(s.state.Imports[:idx:idx], s.state.Imports[idx+1:]...)
	return true
}

// SetNeurostoreID verknüpft einen Stub mit einer persistierten Studie.
func (s *Store) SetNeurostoreID(stubID, neurostoreID string) bool {
	_, ci, ok := s.FindStub(stubID)
	if !ok {
		return false
	}
	s.stub(ci, stubID).NeurostoreID = neurostoreID
	return true
}

// IncludedStubs liefert die nicht ausgeschlossenen Stubs der letzten Spalte.
func (s *Store) IncludedStubs() []StubStudy {
	if len(s.state.Columns) == 0 {
		return nil
	}
	last := s.state.Columns[len(s.state.Columns)-1]
	var out []StubStudy
	for _, stub := range last.StubStudies {
		if !stub.IsExcluded() {
			out = append(out, stub)
		}
	}
	return out
}
