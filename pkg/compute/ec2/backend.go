package ec2

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/redlinehq/paddock/pkg/compute"
)

// Termination poll budget: 15s between checks, up to 10 minutes total.
// Trades latency for certainty that the instance is gone.
const (
	terminateWaitDelay  = 15 * time.Second
	terminateWaitBudget = 40 * terminateWaitDelay
	launchWaitBudget    = 5 * time.Minute
)

// Backend implements compute.Backend on AWS EC2.
type Backend struct {
	client *ec2.Client
	cfg    Config
}

var _ compute.Backend = (*Backend)(nil)

// New creates an EC2 backend with the given configuration.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &compute.ComputeError{Op: "New", Err: err}
	}
	if awsCfg.Region == "" {
		awsCfg.Region = DefaultAWSRegion
	}

	return &Backend{client: ec2.NewFromConfig(awsCfg), cfg: cfg}, nil
}

// EnsureSecurityGroup returns the ID of the named group, creating it with
// the game server ingress rules when absent. An existing group
// short-circuits creation.
func (b *Backend) EnsureSecurityGroup(ctx context.Context, name, description string, extraPorts []int) (string, error) {
	existing, err := b.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{{Name: aws.String("group-name"), Values: []string{name}}},
	})
	if err != nil {
		return "", b.wrapError("EnsureSecurityGroup", "", err)
	}
	if len(existing.SecurityGroups) > 0 {
		return aws.ToString(existing.SecurityGroups[0].GroupId), nil
	}

	created, err := b.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
	})
	if err != nil {
		return "", b.wrapError("EnsureSecurityGroup", "", err)
	}
	groupID := aws.ToString(created.GroupId)

	perms := []types.IpPermission{
		tcpIngress(22, "SSH"),
		tcpIngress(b.cfg.HTTPPort, "game HTTP"),
		tcpIngress(b.cfg.TCPPort, "game TCP"),
		udpIngress(b.cfg.UDPPort, "game UDP"),
	}
	for _, port := range extraPorts {
		perms = append(perms, tcpIngress(port, fmt.Sprintf("extra TCP %d", port)))
	}

	_, err = b.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: perms,
	})
	if err != nil {
		return "", b.wrapError("EnsureSecurityGroup", "", err)
	}

	return groupID, nil
}

func tcpIngress(port int, desc string) types.IpPermission {
	return ingress("tcp", port, desc)
}

func udpIngress(port int, desc string) types.IpPermission {
	return ingress("udp", port, desc)
}

func ingress(proto string, port int, desc string) types.IpPermission {
	return types.IpPermission{
		IpProtocol: aws.String(proto),
		FromPort:   aws.Int32(int32(port)),
		ToPort:     aws.Int32(int32(port)),
		IpRanges: []types.IpRange{
			{CidrIp: aws.String("0.0.0.0/0"), Description: aws.String(desc)},
		},
	}
}

// ResolveImage returns the newest available Ubuntu 22.04 LTS amd64 AMI.
func (b *Backend) ResolveImage(ctx context.Context) (string, error) {
	out, err := b.client.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Filters: []types.Filter{
			{Name: aws.String("name"), Values: []string{ubuntuImageNamePattern}},
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("architecture"), Values: []string{"x86_64"}},
		},
		Owners: []string{canonicalOwnerID},
	})
	if err != nil {
		return "", b.wrapError("ResolveImage", "", err)
	}
	if len(out.Images) == 0 {
		return "", &compute.ComputeError{Op: "ResolveImage", Err: compute.ErrImageNotFound}
	}

	images := out.Images
	sort.Slice(images, func(i, j int) bool {
		return aws.ToString(images[i].CreationDate) > aws.ToString(images[j].CreationDate)
	})
	return aws.ToString(images[0].ImageId), nil
}

// Launch creates one instance and blocks until it is running.
//
// User data is size-checked against the platform ceiling before any
// provider call and base64-encoded as the EC2 API requires.
func (b *Backend) Launch(ctx context.Context, spec compute.LaunchSpec) (string, error) {
	if len(spec.UserData) > compute.MaxUserDataBytes {
		return "", &compute.ComputeError{
			Op:  "Launch",
			Err: fmt.Errorf("%w: %d bytes > %d", compute.ErrUserDataTooLarge, len(spec.UserData), compute.MaxUserDataBytes),
		}
	}

	input := &ec2.RunInstancesInput{
		ImageId:          aws.String(spec.ImageID),
		InstanceType:     types.InstanceType(spec.InstanceType),
		SecurityGroupIds: []string{spec.SecurityGroupID},
		UserData:         aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData))),
		MinCount:         aws.Int32(1),
		MaxCount:         aws.Int32(1),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags: []types.Tag{
					{Key: aws.String("Name"), Value: aws.String(spec.Name)},
					{Key: aws.String("Application"), Value: aws.String("paddock")},
				},
			},
		},
	}

	if spec.KeyName != "" {
		input.KeyName = aws.String(spec.KeyName)
	}
	if spec.IAMInstanceProfile != "" {
		// Accept both name and full ARN forms.
		if strings.HasPrefix(spec.IAMInstanceProfile, "arn:aws:iam::") {
			input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Arn: aws.String(spec.IAMInstanceProfile)}
		} else {
			input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Name: aws.String(spec.IAMInstanceProfile)}
		}
	}

	out, err := b.client.RunInstances(ctx, input)
	if err != nil {
		return "", b.wrapError("Launch", "", err)
	}
	if len(out.Instances) == 0 {
		return "", &compute.ComputeError{Op: "Launch", Err: errors.New("no instance in run response")}
	}
	instanceID := aws.ToString(out.Instances[0].InstanceId)

	waiter := ec2.NewInstanceRunningWaiter(b.client)
	err = waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, launchWaitBudget)
	if err != nil {
		return "", b.wrapError("Launch", instanceID, err)
	}

	return instanceID, nil
}

// Describe returns the instance, or ErrInstanceNotFound.
func (b *Backend) Describe(ctx context.Context, instanceID string) (*compute.Instance, error) {
	out, err := b.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, b.wrapError("Describe", instanceID, err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return nil, &compute.ComputeError{Op: "Describe", InstanceID: instanceID, Err: compute.ErrInstanceNotFound}
	}

	return convertInstance(out.Reservations[0].Instances[0]), nil
}

// FindByName returns IDs of non-terminated instances carrying the name tag.
func (b *Backend) FindByName(ctx context.Context, name string) ([]string, error) {
	out, err := b.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:Name"), Values: []string{name}},
			{Name: aws.String("instance-state-name"), Values: []string{
				string(compute.StatePending),
				string(compute.StateRunning),
				string(compute.StateStopping),
				string(compute.StateStopped),
			}},
		},
	})
	if err != nil {
		return nil, b.wrapError("FindByName", "", err)
	}

	var ids []string
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			ids = append(ids, aws.ToString(inst.InstanceId))
		}
	}
	return ids, nil
}

// Start starts a stopped instance.
func (b *Backend) Start(ctx context.Context, instanceID string) error {
	_, err := b.client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return b.wrapError("Start", instanceID, err)
	}
	return nil
}

// Stop stops a running instance.
func (b *Backend) Stop(ctx context.Context, instanceID string) error {
	_, err := b.client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return b.wrapError("Stop", instanceID, err)
	}
	return nil
}

// Terminate requests termination. A missing or already-terminated instance
// is success: the desired end state is already achieved.
func (b *Backend) Terminate(ctx context.Context, instanceID string) error {
	_, err := b.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		wrapped := b.wrapError("Terminate", instanceID, err)
		if compute.IsInstanceNotFound(wrapped) {
			return nil
		}
		return wrapped
	}
	return nil
}

// TerminateAndWait terminates and blocks until the instance reaches a
// terminal state or the attempt budget is exhausted.
func (b *Backend) TerminateAndWait(ctx context.Context, instanceID string) error {
	inst, err := b.Describe(ctx, instanceID)
	if err != nil {
		if compute.IsInstanceNotFound(err) {
			return nil
		}
		return err
	}
	if inst.State == compute.StateTerminated {
		return nil
	}

	if err := b.Terminate(ctx, instanceID); err != nil {
		return err
	}

	waiter := ec2.NewInstanceTerminatedWaiter(b.client, func(o *ec2.InstanceTerminatedWaiterOptions) {
		o.MinDelay = terminateWaitDelay
		o.MaxDelay = terminateWaitDelay
	})
	err = waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, terminateWaitBudget)
	if err != nil {
		return &compute.ComputeError{
			Op: "TerminateAndWait", InstanceID: instanceID,
			Err: fmt.Errorf("%w: %v", compute.ErrWaitExhausted, err),
		}
	}
	return nil
}

// Close releases any resources held by the backend.
// The EC2 client doesn't require explicit cleanup, but this satisfies the interface.
func (b *Backend) Close() error { return nil }

func convertInstance(inst types.Instance) *compute.Instance {
	out := &compute.Instance{
		ID:           aws.ToString(inst.InstanceId),
		InstanceType: string(inst.InstanceType),
		PublicIP:     aws.ToString(inst.PublicIpAddress),
		PrivateIP:    aws.ToString(inst.PrivateIpAddress),
		LaunchTime:   aws.ToTime(inst.LaunchTime),
	}
	if inst.State != nil {
		out.State = compute.State(inst.State.Name)
	}
	for _, tag := range inst.Tags {
		if aws.ToString(tag.Key) == "Name" {
			out.Name = aws.ToString(tag.Value)
			break
		}
	}
	return out
}

// wrapError converts EC2 errors to compute errors with appropriate
// sentinel errors.
func (b *Backend) wrapError(op, instanceID string, err error) error {
	wrapped := &compute.ComputeError{Op: op, InstanceID: instanceID, Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
			wrapped.Err = compute.ErrInstanceNotFound
		}
		return wrapped
	}

	if strings.Contains(err.Error(), "InvalidInstanceID.NotFound") {
		wrapped.Err = compute.ErrInstanceNotFound
	}
	return wrapped
}
