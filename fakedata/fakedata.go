// Package fakedata generates synthetic account snapshots for development,
// demos, and seeding the classifier. Human-shaped and bot-shaped profiles
// are deliberately exaggerated so the scorer separates them cleanly.
package fakedata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bencan1a/RedditRanger/detector"

	"github.com/brianvoe/gofakeit/v6"
)

// Generator produces deterministic snapshots for a given seed.
type Generator struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
	now   time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now().UTC(),
	}
}

var humanSubreddits = []string{
	"askreddit", "golang", "cooking", "hiking", "books", "movies",
	"personalfinance", "gardening", "woodworking", "science",
}

// HumanSnapshot is a mature account with varied vocabulary, irregular
// posting times, and a spread of communities.
func (g *Generator) HumanSnapshot() *detector.AccountSnapshot {
	ageDays := 200 + g.rng.Intn(2000)
	acct := &detector.AccountSnapshot{
		Username:     g.faker.Username(),
		CreatedUTC:   g.now.Add(-time.Duration(ageDays) * 24 * time.Hour),
		CommentKarma: float64(1000 + g.rng.Intn(40000)),
		LinkKarma:    float64(100 + g.rng.Intn(4000)),
	}

	numComments := 30 + g.rng.Intn(50)
	stamp := g.now
	for i := 0; i < numComments; i++ {
		// irregular gaps, rarely in the 02:00-06:00 window
		stamp = stamp.Add(-time.Duration(2+g.rng.Intn(70)) * time.Hour)
		if h := stamp.Hour(); h >= 2 && h < 6 {
			stamp = stamp.Add(-5 * time.Hour)
		}
		acct.Comments = append(acct.Comments, detector.Comment{
			Body:       g.faker.Paragraph(1, 2+g.rng.Intn(3), 8+g.rng.Intn(10), " "),
			CreatedUTC: stamp,
			Score:      float64(1 + g.rng.Intn(40)),
			Subreddit:  humanSubreddits[g.rng.Intn(len(humanSubreddits))],
		})
	}

	numSubmissions := 3 + g.rng.Intn(8)
	for i := 0; i < numSubmissions; i++ {
		acct.Submissions = append(acct.Submissions, detector.Submission{
			Title:      g.faker.Sentence(6 + g.rng.Intn(6)),
			CreatedUTC: g.now.Add(-time.Duration(g.rng.Intn(ageDays*24)) * time.Hour),
			Score:      float64(g.rng.Intn(200)),
			Subreddit:  humanSubreddits[g.rng.Intn(len(humanSubreddits))],
			IsSelf:     g.rng.Intn(2) == 0,
		})
	}
	return acct
}

var botTemplates = []string{
	"Check out my store for the best price, limited time offer!",
	"Great post! Click here for a special offer: %s",
	"Thanks for sharing! Use promo code SAVE20 at %s",
}

// BotSnapshot is a days-old account blasting templated promo comments into
// one community on a fixed cadence.
func (g *Generator) BotSnapshot() *detector.AccountSnapshot {
	acct := &detector.AccountSnapshot{
		Username:     fmt.Sprintf("%s%d", g.faker.HackerNoun(), 10000+g.rng.Intn(89999)),
		CreatedUTC:   g.now.Add(-time.Duration(2+g.rng.Intn(12)) * 24 * time.Hour),
		CommentKarma: float64(g.rng.Intn(10)),
		LinkKarma:    float64(20 + g.rng.Intn(200)),
	}

	template := botTemplates[g.rng.Intn(len(botTemplates))]
	body := template
	if body != botTemplates[0] {
		body = fmt.Sprintf(template, g.faker.URL())
	}

	numComments := 40 + g.rng.Intn(40)
	stamp := g.now
	for i := 0; i < numComments; i++ {
		// metronomic spacing
		stamp = stamp.Add(-10 * time.Minute)
		acct.Comments = append(acct.Comments, detector.Comment{
			Body:       body,
			CreatedUTC: stamp,
			Score:      1,
			Subreddit:  "dealsdealsdeals",
		})
	}
	return acct
}
