// Package config loads the mailreader configuration with viper.
//
// Values are resolved from, in increasing order of precedence: built-in
// defaults, a YAML file (~/.config/mailreader/config.yaml by default),
// environment variables (MAIL_STORE_ROOT, MAIL_INDEX_PATH,
// MAIL_ATTACHMENT_PATH, MAIL_SEARCH_TIMEOUT) and command-line flags.
package config
