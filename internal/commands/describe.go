package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/gluetrigger/internal/manifest"
	"github.com/dwsmith1983/gluetrigger/internal/stack"
	"github.com/dwsmith1983/gluetrigger/pkg/deferred"
)

type describeOptions struct {
	account string
	region  string
	refs    map[string]string
	offline bool
	asJSON  bool
}

// describedTrigger is one trigger with its names evaluated for a concrete environment.
type describedTrigger struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Name string   `json:"name"`
	Arn  string   `json:"arn"`
	Jobs []string `json:"jobs,omitempty"`
}

func newDescribeCmd(g *globals) *cobra.Command {
	var o describeOptions

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the physical names and ARNs each trigger will have",
		Long: `Evaluates trigger names and ARNs for a partition, region and account.
The account comes from --account, the manifest, or STS in that order.
Names CloudFormation generates at deploy time can be supplied with --ref.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runDescribe(ctx, cmd, g, o)
		},
	}

	cmd.Flags().StringVar(&o.account, "account", "", "target account id")
	cmd.Flags().StringVar(&o.region, "region", "", "target region")
	cmd.Flags().StringToStringVar(&o.refs, "ref", nil, "known physical id for a logical id, as LogicalId=name")
	cmd.Flags().BoolVar(&o.offline, "offline", false, "never call STS; unknown accounts stay unresolved")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print JSON")
	return cmd
}

func runDescribe(ctx context.Context, cmd *cobra.Command, g *globals, o describeOptions) error {
	m, err := loadManifest(g.manifestPath, g.strictOverride(cmd))
	if err != nil {
		return err
	}

	env, err := resolveEnvironment(ctx, m, o)
	if err != nil {
		return err
	}

	// Flags take precedence over the environment baked into the manifest.
	if o.account != "" {
		m.Stack.Account = o.account
	}
	if o.region != "" {
		m.Stack.Region = o.region
	}
	app := awscdk.NewApp(nil)
	res, err := stack.New(app, m.Stack.Name, m)
	if err != nil {
		return err
	}

	described := make([]describedTrigger, 0, len(res.Triggers))
	for _, id := range res.TriggerIDs() {
		trig := res.Triggers[id]
		d := describedTrigger{
			ID:   id,
			Type: trig.Type().String(),
			Name: evaluate(res.Stack, trig.TriggerName(), env),
			Arn:  evaluate(res.Stack, trig.TriggerArn(), env),
		}
		for _, a := range trig.Actions() {
			switch {
			case a.Job != nil:
				d.Jobs = append(d.Jobs, evaluate(res.Stack, a.Job.JobName(), env))
			case a.JobName != "":
				d.Jobs = append(d.Jobs, a.JobName)
			}
		}
		described = append(described, d)
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(described)
	}

	_, _ = color.New(color.Bold).Fprintf(out, "Stack %s (%s/%s/%s)\n", env.StackName, env.Partition, env.Region, orUnknown(env.Account))
	for _, d := range described {
		fmt.Fprintln(out)
		_, _ = color.New(color.Bold).Fprintf(out, "  %s\n", d.ID)
		fmt.Fprintf(out, "    Type: %s\n", d.Type)
		fmt.Fprintf(out, "    Name: %s\n", d.Name)
		fmt.Fprintf(out, "    Arn:  %s\n", d.Arn)
		if len(d.Jobs) > 0 {
			fmt.Fprintf(out, "    Jobs: %s\n", strings.Join(d.Jobs, ", "))
		}
	}
	return nil
}

// evaluate renders an unresolvable value as the reason it is unresolved.
func evaluate(s awscdk.Stack, v deferred.String, env deferred.Environment) string {
	out, err := v.Evaluate(s, env)
	if err == nil {
		return out
	}
	var rerr *deferred.ResolutionError
	if errors.As(err, &rerr) {
		return color.YellowString("<%s: %s>", rerr.Expr, rerr.Reason)
	}
	return color.RedString("<%v>", err)
}

func resolveEnvironment(ctx context.Context, m *manifest.Manifest, o describeOptions) (deferred.Environment, error) {
	env := deferred.Environment{
		Account:   firstNonEmpty(o.account, m.Stack.Account),
		Region:    firstNonEmpty(o.region, m.Stack.Region),
		StackName: m.Stack.Name,
		Refs:      o.refs,
	}
	if env.Region == "" && !o.offline {
		cfg, err := loadAWSConfig(ctx, "")
		if err != nil {
			return env, err
		}
		env.Region = cfg.Region
	}
	if env.Region == "" {
		return env, fmt.Errorf("no region: pass --region, set stack.region or configure an AWS region")
	}
	env.Partition, env.URLSuffix = partitionFor(env.Region)

	if env.Account == "" && !o.offline {
		client, err := newSTSClient(ctx, env.Region)
		if err != nil {
			return env, err
		}
		account, err := callerAccount(ctx, client)
		if err != nil {
			return env, err
		}
		env.Account = account
	}
	return env, nil
}

func callerAccount(ctx context.Context, client STSAPI) (string, error) {
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("sts: GetCallerIdentity failed: %w", err)
	}
	if out == nil || out.Account == nil {
		return "", fmt.Errorf("sts: GetCallerIdentity returned no account")
	}
	return *out.Account, nil
}

// partitionFor maps a region to its partition and URL suffix.
func partitionFor(region string) (string, string) {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn", "amazonaws.com.cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov", "amazonaws.com"
	case strings.HasPrefix(region, "us-iso-"):
		return "aws-iso", "c2s.ic.gov"
	case strings.HasPrefix(region, "us-isob-"):
		return "aws-iso-b", "sc2s.sgov.gov"
	default:
		return "aws", "amazonaws.com"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
