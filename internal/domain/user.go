package domain

// Normalized gender / seeking-preference vocabulary. Raw profile values are
// folded into these before any compatibility check.
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non-binary"
	GenderOther     = "other"
	SeekEveryone    = "everyone"
)

// Normalized relationship-goal vocabulary. GoalBoth matches anything.
const (
	GoalFriendship = "friendship"
	GoalDating     = "dating"
	GoalBoth       = "both"
)

// Scoring algorithm names, stored per side on a match record.
const (
	AlgorithmSimilarity       = "similarity"
	AlgorithmComplementary    = "complementary"
	AlgorithmMultiDimensional = "multidimensional"
	AlgorithmDealBreaker      = "dealbreaker"
)

// TraitVector holds the five personality scores produced by the external
// analysis pipeline. All values are 0-100.
type TraitVector struct {
	Openness          float64 `json:"openness" db:"trait_openness"`
	Conscientiousness float64 `json:"conscientiousness" db:"trait_conscientiousness"`
	Extraversion      float64 `json:"extraversion" db:"trait_extraversion"`
	Agreeableness     float64 `json:"agreeableness" db:"trait_agreeableness"`
	Neuroticism       float64 `json:"neuroticism" db:"trait_neuroticism"`
}

// Values returns the five traits in a fixed order for pairwise comparisons.
func (t *TraitVector) Values() [5]float64 {
	return [5]float64{t.Openness, t.Conscientiousness, t.Extraversion, t.Agreeableness, t.Neuroticism}
}

// User is read-only to the matching core; profile CRUD lives elsewhere.
// Exactly one of the four Use* flags is expected to be true; the scorer falls
// back to similarity when none (or more than one) is set.
type User struct {
	ID                 string `json:"id" db:"id"`
	Gender             string `json:"gender" db:"gender"`
	Seeking            string `json:"seeking" db:"seeking"`
	RelationshipGoal   string `json:"relationship_goal" db:"relationship_goal"`
	RelationshipStatus string `json:"relationship_status" db:"relationship_status"`
	City               string `json:"city" db:"city"`
	Age                int    `json:"age" db:"age"`

	UseSimilarity       bool `json:"use_similarity" db:"use_similarity"`
	UseComplementary    bool `json:"use_complementary" db:"use_complementary"`
	UseMultiDimensional bool `json:"use_multidimensional" db:"use_multidimensional"`
	UseDealBreaker      bool `json:"use_dealbreaker" db:"use_dealbreaker"`

	Traits *TraitVector `json:"traits,omitempty"`

	AttachmentStyle    string   `json:"attachment_style" db:"attachment_style"`
	CommunicationStyle string   `json:"communication_style" db:"communication_style"`
	DealBreakers       []string `json:"deal_breakers"`
	MustHaves          []string `json:"must_haves"`

	IsActive           bool `json:"is_active" db:"is_active"`
	IsAnalysisComplete bool `json:"is_analysis_complete" db:"is_analysis_complete"`
}
