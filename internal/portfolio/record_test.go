package portfolio

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRecord(t *testing.T) {
	rec, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Istiaque Faroque Nabil", rec.Name)
	assert.Equal(t, "DevSecOps Engineer", rec.Title)
	assert.Equal(t, "nabilfaruk6@gmail.com", rec.Email)
	assert.Len(t, rec.Experience, 3)
	assert.Len(t, rec.Projects, 4)
	assert.Len(t, rec.Achievements, 6)
	assert.Equal(t, "Military Institute of Science and Technology", rec.Education.University)
	assert.Contains(t, rec.About, "zero-click spyware detection")
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := MustDefault()
	b := MustDefault()

	a.Skills.Tools[0] = "mutated"
	a.Projects[0].Tech[0] = "mutated"
	a.Achievements = append(a.Achievements, "extra")

	c := MustDefault()
	if diff := cmp.Diff(b, c); diff != "" {
		t.Errorf("shared record changed after mutating a copy (-before +after):\n%s", diff)
	}
}

func TestSkillCategoriesOrder(t *testing.T) {
	rec := MustDefault()
	var keys []string
	for _, c := range rec.Skills.Categories() {
		keys = append(keys, c.Key)
		assert.NotEmpty(t, c.Items, c.Key)
	}
	assert.Equal(t, []string{"devsecops", "security", "development", "databases", "tools"}, keys)
}

func TestProjectsOfType(t *testing.T) {
	rec := MustDefault()
	sec := rec.ProjectsOfType("security")
	require.Len(t, sec, 2)
	assert.Equal(t, "Zero-Click Spyware Detection using ML/DL", sec[0].Title)
	assert.Empty(t, rec.ProjectsOfType("hardware"))
}

func TestJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(MustDefault())
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, key := range []string{"name", "title", "email", "phone", "location", "github", "linkedin", "about", "skills", "experience", "projects", "achievements", "education"} {
		assert.Contains(t, generic, key)
	}
	edu := generic["education"].(map[string]any)
	assert.Equal(t, "BSc in Computer Science and Engineering", edu["degree"])
	assert.True(t, strings.Index(string(raw), `"devsecops"`) < strings.Index(string(raw), `"tools"`))
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x\nemail: y\nunknown: z\n"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("title: only a title\n"))
	assert.ErrorContains(t, err, "required")
}
