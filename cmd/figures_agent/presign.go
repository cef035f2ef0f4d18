package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/uploads"
)

func newPresignCmd(root *rootOptions) *cobra.Command {
	var req uploads.Request
	var kind string

	cmd := &cobra.Command{
		Use:   "presign",
		Short: "Issue a presigned upload URL for a thumbnail or portrait",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !root.cfg.UploadsConfigured() {
				return errors.New("THUMBNAIL_BUCKET_NAME and ARTIFACTS_BUCKET_NAME are required")
			}
			a, err := newApp(cmd.Context(), root.cfg, appParts{uploads: true})
			if err != nil {
				return err
			}
			defer a.Close()

			req.Type = uploads.Kind(kind)
			up, err := a.uploads.Presign(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), up)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "PUT %s\n  bucket: %s\n  key:    %s\n  expires in %ds\n",
				up.URL, up.Bucket, up.Key, up.ExpiresIn)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Asset type: thumbnail or portrait (required)")
	cmd.Flags().StringVar(&req.Filename, "filename", "", "Object file name (required)")
	cmd.Flags().StringVar(&req.ContentType, "content-type", "image/png", "Content type of the upload")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}
