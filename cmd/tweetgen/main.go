package main

import (
	"archive/zip"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	flags "github.com/jessevdk/go-flags"
	jsoniter "github.com/json-iterator/go"
)

// tweetgen writes a synthetic zipped tweet archive in the same shape the
// trending CLI reads. Handy for trying the queries without a real dump.

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	Out   string `long:"out" default:"data/tweets.json.zip" description:"path of the archive to write"`
	Count int    `long:"count" default:"100000" description:"number of tweets to generate"`
	Days  int    `long:"days" default:"30" description:"spread tweets over this many days"`
	Users int    `long:"users" default:"500" description:"size of the user population"`
	Seed  int64  `long:"seed" default:"1" description:"random seed"`
}

type tweet struct {
	Date    string `json:"date"`
	User    user   `json:"user"`
	Content string `json:"content"`
}

type user struct {
	Username string `json:"username"`
}

var emojis = []string{"🔥", "😂", "❤️", "👍", "🎉", "😭", "🙏", "💀"}

func initOptions() *Options {
	var options Options
	parser := flags.NewParser(&options, flags.Default)

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	return &options
}

func main() {
	options := initOptions()
	if err := run(options); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(options *Options) error {
	rng := rand.New(rand.NewSource(options.Seed))
	start := time.Now().UTC().AddDate(0, 0, -options.Days)

	tweets := make([]tweet, 0, options.Count)
	for i := 0; i < options.Count; i++ {
		// Quadratic skew so a handful of users and days dominate,
		// which gives the top-k queries something to rank.
		day := int(float64(options.Days) * rng.Float64() * rng.Float64())
		who := int(float64(options.Users) * rng.Float64() * rng.Float64())

		at := start.AddDate(0, 0, day).Add(time.Duration(rng.Intn(86400)) * time.Second)
		tweets = append(tweets, tweet{
			Date:    at.Format(time.RFC3339),
			User:    user{Username: fmt.Sprintf("user%d", who)},
			Content: content(rng, options.Users),
		})
	}

	// The streaming date query requires input grouped by date, so the
	// archive must be written in timestamp order. Timestamps are UTC
	// RFC3339, so string order is time order.
	sort.Slice(tweets, func(i, j int) bool { return tweets[i].Date < tweets[j].Date })

	f, err := os.Create(options.Out)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create("tweets.json")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(entry)
	for i := range tweets {
		if err := enc.Encode(&tweets[i]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func content(rng *rand.Rand, users int) string {
	text := "synthetic tweet"
	if rng.Intn(3) == 0 {
		text += " " + emojis[rng.Intn(len(emojis))]
	}
	if rng.Intn(4) == 0 {
		mentioned := int(float64(users) * rng.Float64() * rng.Float64())
		text += fmt.Sprintf(" @user%d", mentioned)
	}
	return text
}
