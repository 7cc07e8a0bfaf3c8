package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
)

// UploadImage sends an image to the memory gallery as multipart form data.
func (c *Client) UploadImage(ctx context.Context, owner, relationship, filename string, file io.Reader) (Image, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, owner, relationship, filename, file)
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	var img Image
	err := c.post(ctx, "MemoryGallery", "uploadImage", form.FormDataContentType(), pr, &img)
	// Unblock the writer if the request failed before draining the body.
	pr.Close()
	return img, err
}

func writeUploadForm(form *multipart.Writer, owner, relationship, filename string, file io.Reader) error {
	if err := form.WriteField("owner", owner); err != nil {
		return err
	}
	if err := form.WriteField("relationship", relationship); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	return nil
}

func (c *Client) ImagesByRelationship(ctx context.Context, owner, relationship string) ([]Image, error) {
	var rows []Image
	if err := c.call(ctx, "MemoryGallery", "_getImagesByRelationship", map[string]string{
		"owner":        owner,
		"relationship": relationship,
	}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
