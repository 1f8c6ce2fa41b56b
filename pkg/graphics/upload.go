package graphics

import (
	"fmt"
	"os"
	"strings"

	"github.com/tinyland-lab/kittygfx/pkg/graphics/rawdecode"
)

// readFile reads an entire file into memory. Cache files are bounded by
// max_single_image_file_bytes, so a whole-file read is acceptable here.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func removeFile(path string) error {
	return os.Remove(path)
}

// isDeletableTempPath implements the double condition spec.md §4.4
// requires before a temp-file transmission's source file is deleted:
// the path must lie under /tmp or $TMPDIR, and its name must contain
// "tty-graphics-protocol" — never delete arbitrary user files.
func isDeletableTempPath(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	if !strings.Contains(base, "tty-graphics-protocol") {
		return false
	}
	if strings.HasPrefix(path, "/tmp/") {
		return true
	}
	if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" && strings.HasPrefix(path, tmpdir) {
		return true
	}
	return false
}

// putParams is the put-command geometry a=T stashes on an image whose
// direct transmission is not yet complete, so the eventual continuation
// chunk that finishes the upload can run the deferred put (spec.md
// §4.6: "a=T ... unless the transmit was a continuation of a previous
// direct upload, in that case no put runs on the intermediate chunks").
type putParams struct {
	placementID     uint32
	hasPlacementID  bool
	srcX, srcY      int
	srcW, srcH      int
	cols, rows      int
	virtual         bool
	doNotMoveCursor bool
}

// runTransmit executes the transmit state machine (component F) for an
// a=t, a=q, or a=T command. It returns the image involved (nil if the
// command failed before an image was resolved or created: a continuation
// with no bound image, or an undecodable file-path payload), whether the
// upload is complete (false while more chunks are expected), and the
// response to emit.
func (e *Engine) runTransmit(cmd *command, ephemeral bool) (img *Image, finished bool, res *Result) {
	res = (&Result{}).withHeaders(cmd)

	switch cmd.medium {
	case 'd', 0:
		return e.transmitDirect(cmd, ephemeral, res)
	case 'f':
		return e.transmitFile(cmd, ephemeral, res, false)
	case 't':
		return e.transmitFile(cmd, ephemeral, res, true)
	default:
		return nil, true, res.fail(newError(CodeEINVAL, "unsupported medium 't'"))
	}
}

// transmitDirect handles t=d: inline base64 payload, possibly chunked.
func (e *Engine) transmitDirect(cmd *command, ephemeral bool, res *Result) (*Image, bool, *Result) {
	var img *Image
	isNewImage := cmd.hasImageID || cmd.hasImageNumber || ephemeral || e.currentUploadImageID == 0

	if !isNewImage {
		var ok bool
		img, ok = e.store.FindImage(e.currentUploadImageID)
		if !ok {
			e.currentUploadImageID = 0
			return nil, true, res.fail(newError(CodeENOENT, "no upload in progress"))
		}
	} else {
		img = &Image{
			Format:      cmd.format,
			Compression: cmd.compression,
			PixWidth:    cmd.pixW,
			PixHeight:   cmd.pixH,
			ExpectedSize: cmd.expectSize,
			Quiet:        cmd.quiet,
			Status:       StatusUploading,
			GlobalCommandIndex: e.globalCommandIndex,
		}
		if cmd.hasImageID {
			img.ImageID = cmd.imageID
		}
		if ephemeral {
			img.ImageID = 0
		}
		if cmd.hasImageNumber {
			img.ImageNumber = cmd.imageNumber
		}
		e.store.InsertImage(img)
		if ephemeral {
			img.QueryID = img.ImageID
		}

		f, err := e.disk.OpenForWrite(img.ImageID)
		if err != nil {
			img.Status = StatusUploadErr
			img.UploadingFailure = FailureCannotOpenCachedFile
			return img, true, res.fail(wrapError(CodeEBADF, "cannot open cache file", err))
		}
		img.openFile = f
	}
	img.Atime = e.store.Tick()

	more := cmd.hasMore && cmd.more

	// A previous chunk already tripped an error on this upload
	// (spec.md §4.4/§7: "error responses are emitted only on the final
	// chunk to avoid flooding"). Later intermediate chunks are absorbed
	// without touching the now-closed cache file, keeping
	// current_upload_image_id bound so they keep routing here; only the
	// real final chunk reports the failure.
	if img.Status == StatusUploadErr {
		if more {
			e.currentUploadImageID = img.ImageID
			return img, false, res.suppress()
		}
		e.clearContinuationIfMatches(img.ImageID)
		return img, true, res.fail(uploadFailureError(img.UploadingFailure))
	}

	data, perr := decodePayload(cmd.payload)
	if perr != nil {
		e.failUpload(img, FailureCannotOpenCachedFile)
		if more {
			e.currentUploadImageID = img.ImageID
			return img, false, res.suppress()
		}
		e.clearContinuationIfMatches(img.ImageID)
		return img, true, res.fail(perr)
	}

	if img.openFile != nil {
		projected := img.openFile.Size() + int64(len(data))
		if projected > e.cfg.MaxSingleImageFileBytes || img.ExpectedSize > e.cfg.MaxSingleImageFileBytes {
			e.failUpload(img, FailureOverSizeLimit)
			img.DiskSize = 0
			if more {
				e.currentUploadImageID = img.ImageID
				return img, false, res.suppress()
			}
			e.clearContinuationIfMatches(img.ImageID)
			return img, true, res.fail(newError(CodeEFBIG, "image exceeds max_single_image_file_bytes"))
		}
		if err := img.openFile.Append(data); err != nil {
			e.failUpload(img, FailureCannotOpenCachedFile)
			if more {
				e.currentUploadImageID = img.ImageID
				return img, false, res.suppress()
			}
			e.clearContinuationIfMatches(img.ImageID)
			return img, true, res.fail(wrapError(CodeEBADF, "append failed", err))
		}
		img.DiskSize = img.openFile.Size()
	}

	if more {
		e.currentUploadImageID = img.ImageID
		return img, false, res.suppress()
	}

	// Final chunk (m=0, or no m key at all: a single-shot transmission).
	e.clearContinuationIfMatches(img.ImageID)
	if img.openFile != nil {
		_ = img.openFile.Close()
		img.openFile = nil
	}

	if img.ExpectedSize != 0 && img.ExpectedSize != img.DiskSize {
		img.Status = StatusUploadErr
		img.UploadingFailure = FailureUnexpectedSize
		return img, true, res.fail(newError(CodeEINVAL, fmt.Sprintf(
			"the size of the uploaded image %d doesn't match the expected size %d", img.DiskSize, img.ExpectedSize)))
	}

	img.Status = StatusUploadOk
	e.finishLoad(img)
	if img.Status != StatusRamLoadOk {
		return img, true, res.fail(newError(CodeEBADF, "failed to load image"))
	}
	return img, true, res.ok()
}

// transmitFile handles t=f and t=t: the payload is a base64-encoded
// absolute file path, copied into the cache, then deleted if tempfile
// is set and the double safety condition holds (spec.md §4.4).
func (e *Engine) transmitFile(cmd *command, ephemeral bool, res *Result, tempfile bool) (*Image, bool, *Result) {
	pathBytes, perr := decodePayload(cmd.payload)
	if perr != nil {
		return nil, true, res.fail(perr)
	}
	path := string(pathBytes)

	img := &Image{
		Format:       cmd.format,
		Compression:  cmd.compression,
		PixWidth:     cmd.pixW,
		PixHeight:    cmd.pixH,
		ExpectedSize: cmd.expectSize,
		Quiet:        cmd.quiet,
		Status:       StatusUploading,
		GlobalCommandIndex: e.globalCommandIndex,
	}
	if cmd.hasImageID {
		img.ImageID = cmd.imageID
	}
	if ephemeral {
		img.ImageID = 0
	}
	if cmd.hasImageNumber {
		img.ImageNumber = cmd.imageNumber
	}
	e.store.InsertImage(img)
	if ephemeral {
		img.QueryID = img.ImageID
	}
	img.Atime = e.store.Tick()

	n, err := e.disk.CopyFile(path, img.ImageID)
	if err != nil {
		img.Status = StatusUploadErr
		img.UploadingFailure = FailureCannotCopyFile
		return img, true, res.fail(wrapError(CodeEBADF, "cannot copy file", err))
	}
	img.DiskSize = n

	if n > e.cfg.MaxSingleImageFileBytes {
		_ = e.disk.Remove(img.ImageID)
		img.DiskSize = 0
		img.Status = StatusUploadErr
		img.UploadingFailure = FailureOverSizeLimit
		return img, true, res.fail(newError(CodeEFBIG, "image exceeds max_single_image_file_bytes"))
	}
	if img.ExpectedSize != 0 && img.ExpectedSize != img.DiskSize {
		img.Status = StatusUploadErr
		img.UploadingFailure = FailureUnexpectedSize
		return img, true, res.fail(newError(CodeEINVAL, fmt.Sprintf(
			"the size of the uploaded image %d doesn't match the expected size %d", img.DiskSize, img.ExpectedSize)))
	}

	if tempfile && isDeletableTempPath(path) {
		_ = removeFile(path)
	}

	img.Status = StatusUploadOk
	e.finishLoad(img)
	if img.Status != StatusRamLoadOk {
		return img, true, res.fail(newError(CodeEBADF, "failed to load image"))
	}
	return img, true, res.ok()
}

// finishLoad decodes an image's on-disk bytes into OriginalRaster,
// setting Status to RamLoadOk or RamLoadErr (component D).
func (e *Engine) finishLoad(img *Image) {
	raw, err := e.readCacheFile(img.ImageID)
	if err != nil {
		img.Status = StatusRamLoadErr
		return
	}

	data := raw
	if img.Compression == CompressionZlib {
		inflated, ierr := rawdecode.Inflate(data)
		if ierr != nil {
			img.Status = StatusRamLoadErr
			return
		}
		data = inflated
	}

	switch img.Format {
	case FormatRGB, FormatRGBA:
		if img.PixWidth <= 0 || img.PixHeight <= 0 {
			img.Status = StatusRamLoadErr
			return
		}
		n, derr := rawdecode.DecodeRaw(data, uint32(img.Format), img.PixWidth, img.PixHeight)
		if derr != nil {
			img.Status = StatusRamLoadErr
			return
		}
		img.OriginalRaster = n
		img.Status = StatusRamLoadOk
	default: // FormatAuto, FormatFile
		n, w, h, derr := rawdecode.DecodeAuto(data)
		if derr != nil {
			img.Status = StatusRamLoadErr
			return
		}
		img.OriginalRaster = n
		img.PixWidth, img.PixHeight = w, h
		img.Status = StatusRamLoadOk
	}
}

func (e *Engine) readCacheFile(id uint32) ([]byte, error) {
	return readFile(e.disk.path(id))
}

// failUpload transitions img to UploadErr, closing and removing its
// cache file. It does not touch current_upload_image_id: whether the
// continuation stays bound depends on whether the triggering chunk was
// the upload's final one, which only the caller knows.
func (e *Engine) failUpload(img *Image, failure UploadFailure) {
	if img.openFile != nil {
		_ = img.openFile.Close()
		img.openFile = nil
	}
	_ = e.disk.Remove(img.ImageID)
	img.Status = StatusUploadErr
	img.UploadingFailure = failure
}

// uploadFailureError reconstructs the wire error for a failure that was
// absorbed on an earlier, non-final chunk and is now being reported on
// the upload's actual final chunk.
func uploadFailureError(failure UploadFailure) *wireError {
	switch failure {
	case FailureOverSizeLimit:
		return newError(CodeEFBIG, "image exceeds max_single_image_file_bytes")
	case FailureCannotOpenCachedFile:
		return newError(CodeEBADF, "cannot open cache file")
	default:
		return newError(CodeEIO, "upload failed")
	}
}

func (e *Engine) clearContinuationIfMatches(id uint32) {
	if e.currentUploadImageID == id {
		e.currentUploadImageID = 0
	}
}

// continuationChunk handles a bare "m=..." command with no action key:
// it appends to (or finalizes) the in-progress direct upload bound to
// current_upload_image_id, and if that image had a deferred a=T put
// stashed, runs it now that the upload has completed.
func (e *Engine) continuationChunk(cmd *command) *Result {
	id := e.currentUploadImageID
	if id == 0 {
		return (&Result{}).fail(newError(CodeENOENT, "no upload in progress"))
	}

	img, finished, res := e.transmitDirect(cmd, false, &Result{})
	res.headers = []string{formatHeader("i", id)}
	res.quiet = cmd.quiet
	if img != nil {
		res.quiet = img.Quiet
	}

	if finished {
		if pp, ok := e.pendingPut[id]; ok {
			delete(e.pendingPut, id)
			if img != nil && img.Status == StatusRamLoadOk {
				e.runPendingPut(img, pp)
			}
		}
	}

	return res
}

func (e *Engine) runPendingPut(img *Image, pp *putParams) {
	p := &Placement{
		SrcPixX: pp.srcX, SrcPixY: pp.srcY,
		SrcPixWidth: pp.srcW, SrcPixHeight: pp.srcH,
		Cols: pp.cols, Rows: pp.rows,
		Virtual:         pp.virtual,
		DoNotMoveCursor: pp.doNotMoveCursor,
	}
	p.ScaleMode = choosePlacementScaleMode(p.Virtual, pp.cols, pp.rows)
	if pp.hasPlacementID {
		p.PlacementID = pp.placementID
	}
	e.store.InsertPlacement(img, p)
	img.InitialPlacementID = p.PlacementID
	img.Atime = e.store.Tick()
	p.Atime = img.Atime

	cellW, cellH := e.cells.CellSize()
	// Errors here (e.g. RamLoadErr-class placement overflow) are not
	// surfaced: the continuation's own response has already been formed
	// by the time the deferred put runs.
	_ = LoadPlacement(p, img, cellW, cellH, e.cfg.MaxSingleImageRAMBytes)
}

func choosePlacementScaleMode(virtual bool, cols, rows int) ScaleMode {
	if virtual {
		return ScaleContain
	}
	if cols != 0 || rows != 0 {
		return ScaleFill
	}
	return ScaleNone
}
