package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
	"github.com/abdul-hamid-achik/apidriver/packages/codec"
	"github.com/abdul-hamid-achik/apidriver/packages/core/config"
	"github.com/abdul-hamid-achik/apidriver/packages/http"
	"github.com/abdul-hamid-achik/apidriver/packages/logger"
	"github.com/abdul-hamid-achik/apidriver/packages/stats"
)

type requestOptions struct {
	query     []string
	data      string
	jsonBody  string
	yamlBody  string
	form      []string
	requestID string
	decode    string
	schema    string
	repeat    int
}

func newRequestCmd(g *globalOptions, method string) *cobra.Command {
	opts := &requestOptions{}
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, g, opts, method, args[0])
		},
	}

	flags := cmd.Flags()
	if method == "GET" || method == "DELETE" {
		cmd.Example = fmt.Sprintf("  apidriver %s /widgets --query page=2 --query sort=name", name)
		flags.StringArrayVarP(&opts.query, "query", "q", nil, "Querystring parameter (key=value), kept in order")
	} else {
		cmd.Example = fmt.Sprintf("  apidriver %s /widgets --json '{\"name\": \"foo\"}'", name)
		flags.StringVarP(&opts.data, "data", "d", "", "Raw request body")
		flags.StringVar(&opts.jsonBody, "json", "", "JSON request body, re-encoded and sent as application/json")
		flags.StringVar(&opts.yamlBody, "yaml", "", "YAML request body, re-encoded and sent as application/yaml")
		flags.StringArrayVar(&opts.form, "form", nil, "Form field (key=value), sent url-encoded")
		cmd.MarkFlagsMutuallyExclusive("data", "json", "yaml", "form")
	}
	flags.StringVar(&opts.requestID, "request-id", "", "Header name to carry a generated request id")
	flags.StringVar(&opts.decode, "decode", "raw", "Response decoding: raw, json, yaml, gjson, gjson:<path>")
	flags.StringVar(&opts.schema, "schema", "", "JSON schema file the response must match")
	flags.IntVar(&opts.repeat, "repeat", 1, "Send the request N times and print latency statistics")

	return cmd
}

func runRequest(cmd *cobra.Command, g *globalOptions, opts *requestOptions, method, path string) error {
	if opts.repeat < 1 {
		return usageError(errors.New("--repeat must be at least 1"))
	}

	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return configError(err)
	}

	formatter, err := g.formatter(cmd, cfg)
	if err != nil {
		return err
	}

	data, profileOpts, err := opts.payload(method)
	if err != nil {
		return usageError(err)
	}
	decoder, err := opts.decoder()
	if err != nil {
		return usageError(err)
	}
	profileOpts = append(profileOpts, apiclient.DecodeWith(decoder))
	if opts.requestID != "" {
		profileOpts = append(profileOpts, apiclient.RequestID(opts.requestID))
	}

	profile, err := buildProfile(cfg, profileOpts...)
	if err != nil {
		return configError(err)
	}

	log := logger.New(cfg.LogLevel, cmd.ErrOrStderr())
	defer func() { _ = log.Sync() }()

	recorder := stats.NewRecorder(buildTransport(cfg), nil)
	client, err := apiclient.New(cfg, recorder, profile, apiclient.WithLogger(log))
	if err != nil {
		return configError(err)
	}

	var (
		value    any
		firstErr error
		lastErr  error
		failedAt = -1
		last     int
	)
	for i := 0; i < opts.repeat; i++ {
		last = i
		value, lastErr = client.Request(cmd.Context(), method, path, data, nil)
		if lastErr != nil && firstErr == nil {
			firstErr, failedAt = lastErr, i
		}
		if cmd.Context().Err() != nil {
			break
		}
	}
	recorder.Metrics().Stop()

	// The first failure decides the exit code, so it is always shown.
	if firstErr != nil && failedAt != last {
		formatter.FormatError(firstErr)
	}
	if lastErr != nil {
		formatter.FormatError(lastErr)
	} else {
		formatter.FormatValue(value)
	}
	if opts.repeat > 1 {
		formatter.FormatStats(recorder.Metrics().Summary())
	}

	if firstErr != nil {
		return requestFailure(firstErr)
	}
	return nil
}

// payload returns the data handed to the client and the profile options
// that encode it.
func (o *requestOptions) payload(method string) (any, []apiclient.ProfileOption, error) {
	if method == "GET" || method == "DELETE" {
		if len(o.query) == 0 {
			return nil, nil, nil
		}
		params, err := parsePairs(o.query)
		return params, nil, err
	}

	switch {
	case o.jsonBody != "":
		var v any
		if err := json.Unmarshal([]byte(o.jsonBody), &v); err != nil {
			return nil, nil, fmt.Errorf("--json: %w", err)
		}
		return v, encodeOptions(codec.JSON()), nil
	case o.yamlBody != "":
		var v any
		if err := yaml.Unmarshal([]byte(o.yamlBody), &v); err != nil {
			return nil, nil, fmt.Errorf("--yaml: %w", err)
		}
		return v, encodeOptions(codec.YAML()), nil
	case len(o.form) > 0:
		params, err := parsePairs(o.form)
		if err != nil {
			return nil, nil, err
		}
		return params, []apiclient.ProfileOption{apiclient.EncodeWith(codec.Form())}, nil
	case o.data != "":
		return o.data, nil, nil
	}
	return nil, nil, nil
}

// encodeOptions installs only the encoding half of c, leaving response
// decoding to --decode.
func encodeOptions(c codec.Codec) []apiclient.ProfileOption {
	return []apiclient.ProfileOption{
		apiclient.EncodeWith(c.Encode),
		apiclient.Header("Content-Type", c.ContentType),
	}
}

func (o *requestOptions) decoder() (apiclient.Decoder, error) {
	var dec apiclient.Decoder
	switch {
	case o.decode == "" || o.decode == "raw":
	case o.decode == "gjson":
		dec = codec.GJSON()
	case strings.HasPrefix(o.decode, "gjson:"):
		dec = codec.JSONPath(strings.TrimPrefix(o.decode, "gjson:"))
	default:
		c, ok := codec.ByName(o.decode)
		if !ok {
			return nil, fmt.Errorf("unknown --decode %q (want raw, json, yaml, gjson or gjson:<path>)", o.decode)
		}
		dec = c.Decode
	}

	if o.schema == "" {
		return dec, nil
	}
	return codec.ValidateSchemaFile(o.schema, dec)
}

func parsePairs(pairs []string) (apiclient.Params, error) {
	params := make(apiclient.Params, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}
		params = params.Add(key, value)
	}
	return params, nil
}

// buildProfile declares the configured headers, then applies opts.
func buildProfile(cfg *config.Config, opts ...apiclient.ProfileOption) (*apiclient.Profile, error) {
	headers, err := cfg.ParsedHeaders()
	if err != nil {
		return nil, err
	}
	base := make([]apiclient.ProfileOption, 0, len(headers))
	for _, h := range headers {
		base = append(base, apiclient.Header(h.Name, h.Value))
	}
	return apiclient.NewProfile(base...).Extend(opts...), nil
}

func buildTransport(cfg *config.Config) apiclient.Transport {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithRateLimit(cfg.RateLimit),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.TimeoutDuration()))
	}

	if cfg.Transport == config.TransportResty {
		return http.NewRestyClient(opts...)
	}
	return http.NewClient(opts...)
}
