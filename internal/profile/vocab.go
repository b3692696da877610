package profile

// Static reference vocabularies for skill classification. Terms are stored
// in canonical form; aliases fold common surface variants onto the same
// token so vectors built from different texts intersect correctly.

var techVocabulary = []string{
	// Programming languages
	"python", "java", "javascript", "typescript", "c++", "c#", "go", "rust",
	"ruby", "php", "swift", "kotlin", "scala", "r", "matlab", "sql",

	// Web technologies
	"html", "css", "react", "angular", "vue", "node.js", "express",
	"django", "flask", "spring", "laravel", "rails",

	// Databases
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch",
	"cassandra", "dynamodb", "sqlite",

	// Cloud & DevOps
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins",
	"terraform", "ansible", "git", "github", "gitlab",

	// Data & ML
	"pandas", "numpy", "scikit-learn", "tensorflow", "pytorch",
	"keras", "spark", "hadoop", "tableau", "powerbi",

	// Tooling
	"linux", "unix", "bash", "powershell", "vim", "jira", "confluence",
}

var softVocabulary = []string{
	"leadership", "communication", "teamwork", "problem-solving",
	"analytical", "creative", "adaptable", "organized", "detail-oriented",
	"collaborative", "innovative", "strategic", "mentoring", "coaching",
	"project management", "time management", "critical thinking",
	"decision making", "conflict resolution", "presentation skills",
}

// aliases map surface variants to their canonical vocabulary token.
var aliases = map[string]string{
	"golang":       "go",
	"nodejs":       "node.js",
	"node js":      "node.js",
	"postgres":     "postgresql",
	"k8s":          "kubernetes",
	"es":           "elasticsearch",
	"sklearn":      "scikit-learn",
	"power bi":     "powerbi",
	"reactjs":      "react",
	"vuejs":        "vue",
	"angularjs":    "angular",
	"tf":           "terraform",
	"problem solving": "problem-solving",
	"detail oriented": "detail-oriented",
}

// seniorityLevels imply a years-of-experience floor when a posting names a
// level but no explicit year count.
var seniorityLevels = []struct {
	years      int
	indicators []string
}{
	{0, []string{"entry level", "entry-level", "junior", "new grad", "recent graduate"}},
	{3, []string{"mid level", "mid-level", "intermediate"}},
	{6, []string{"senior", "staff engineer", "lead", "principal", "expert"}},
	{10, []string{"director", "vp", "head of", "chief"}},
}

// stopwords excluded from keyword extraction.
var stopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "because": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "but": true,
	"by": true, "can": true, "did": true, "do": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "here": true, "how": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "more": true, "most": true, "no": true, "not": true,
	"now": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "out": true,
	"over": true, "own": true, "same": true, "should": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"too": true, "under": true, "until": true, "up": true, "very": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}
