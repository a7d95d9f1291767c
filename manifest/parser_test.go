package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("should parse package.json dependencies in declaration order", func(t *testing.T) {
		content := []byte(`{
			"name": "demo",
			"dependencies": {
				"lodash": "4.17.20",
				"express": "^4.18.0",
				"axios": "~1.6.0"
			},
			"devDependencies": {
				"jest": "29.0.0"
			}
		}`)

		dependencies := Parse(content, "package.json")

		assert.Equal(t, []Dependency{
			{Name: "lodash", Version: "4.17.20", Ecosystem: "npm"},
			{Name: "express", Version: "^4.18.0", Ecosystem: "npm"},
			{Name: "axios", Version: "~1.6.0", Ecosystem: "npm"},
		}, dependencies)
	})

	t.Run("should not pick up devDependencies", func(t *testing.T) {
		content := []byte(`{"dependencies": {}, "devDependencies": {"jest": "29.0.0"}}`)

		dependencies := Parse(content, "package.json")

		assert.Empty(t, dependencies)
	})

	t.Run("should parse requirements.txt", func(t *testing.T) {
		content := []byte("requests==2.28.1\nflask==2.2.2\n\ndjango\n")

		dependencies := Parse(content, "requirements.txt")

		assert.Equal(t, []Dependency{
			{Name: "requests", Version: "2.28.1", Ecosystem: "PyPI"},
			{Name: "flask", Version: "2.2.2", Ecosystem: "PyPI"},
			{Name: "django", Version: "", Ecosystem: "PyPI"},
		}, dependencies)
	})

	t.Run("should parse Gemfile gem lines", func(t *testing.T) {
		content := []byte(`source "https://rubygems.org"
gem "rails", "7.0.4"
gem 'puma'
gem "nokogiri", "1.13.10"
`)

		dependencies := Parse(content, "Gemfile")

		assert.Equal(t, []Dependency{
			{Name: "rails", Version: "7.0.4", Ecosystem: "RubyGems"},
			{Name: "puma", Version: "", Ecosystem: "RubyGems"},
			{Name: "nokogiri", Version: "1.13.10", Ecosystem: "RubyGems"},
		}, dependencies)
	})

	t.Run("should parse composer.json require map", func(t *testing.T) {
		content := []byte(`{"require": {"monolog/monolog": "2.8.0", "guzzlehttp/guzzle": "7.5.0"}}`)

		dependencies := Parse(content, "composer.json")

		assert.Equal(t, []Dependency{
			{Name: "monolog/monolog", Version: "2.8.0", Ecosystem: "Packagist"},
			{Name: "guzzlehttp/guzzle", Version: "7.5.0", Ecosystem: "Packagist"},
		}, dependencies)
	})

	t.Run("should dispatch composer.json by filename even though it contains a dependencies key", func(t *testing.T) {
		// composer manifests can carry both keys - the filename decides
		content := []byte(`{"require": {"monolog/monolog": "2.8.0"}, "dependencies": {"lodash": "4.17.20"}}`)

		dependencies := Parse(content, "composer.json")

		assert.Equal(t, []Dependency{
			{Name: "monolog/monolog", Version: "2.8.0", Ecosystem: "Packagist"},
		}, dependencies)
	})

	t.Run("should parse single line go.mod requires", func(t *testing.T) {
		content := []byte(`module example.com/demo

go 1.22

require github.com/google/uuid v1.6.0
require github.com/pkg/errors v0.9.1
`)

		dependencies := Parse(content, "go.mod")

		assert.Equal(t, []Dependency{
			{Name: "github.com/google/uuid", Version: "v1.6.0", Ecosystem: "Go"},
			{Name: "github.com/pkg/errors", Version: "v0.9.1", Ecosystem: "Go"},
		}, dependencies)
	})

	t.Run("should parse pom.xml and skip nodes without coordinates", func(t *testing.T) {
		content := []byte(`<?xml version="1.0"?>
<project>
	<dependencies>
		<dependency>
			<groupId>org.apache.logging.log4j</groupId>
			<artifactId>log4j-core</artifactId>
			<version>2.14.0</version>
		</dependency>
		<dependency>
			<groupId>org.example</groupId>
			<artifactId>managed-elsewhere</artifactId>
		</dependency>
	</dependencies>
</project>`)

		dependencies := Parse(content, "pom.xml")

		assert.Equal(t, []Dependency{
			{Name: "log4j-core", Version: "2.14.0", Ecosystem: "Maven"},
		}, dependencies)
	})

	t.Run("should sniff json content without a filename hint", func(t *testing.T) {
		content := []byte(`{"dependencies": {"lodash": "4.17.20"}}`)

		dependencies := Parse(content, "upload.bin")

		assert.Equal(t, []Dependency{
			{Name: "lodash", Version: "4.17.20", Ecosystem: ""},
		}, dependencies)
	})

	t.Run("should fall back to name==version lines for unknown formats", func(t *testing.T) {
		content := []byte("left-pad==1.3.0\nsomething")

		dependencies := Parse(content, "deps.lock")

		assert.Equal(t, []Dependency{
			{Name: "left-pad", Version: "1.3.0", Ecosystem: ""},
			{Name: "something", Version: "", Ecosystem: ""},
		}, dependencies)
	})

	t.Run("should yield an empty result for malformed json", func(t *testing.T) {
		dependencies := Parse([]byte(`{"dependencies": `), "package.json")

		assert.Empty(t, dependencies)
	})

	t.Run("should yield an empty result for empty input", func(t *testing.T) {
		assert.Empty(t, Parse([]byte(""), "package.json"))
		assert.Empty(t, Parse([]byte(""), ""))
	})
}
