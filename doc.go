/*
Package auris implements a pull-based audio source pipeline.

Concept

Audio data flows through a chain of stages. Every stage implements the
Source contract: it reports an immutable SampleFormat, produces
interleaved little-endian frames on demand and signals the end of stream
with io.EOF. A chain is composed by wrapping sources into each other:

	decoder, err := wavpack.NewSource(module, "take.wv")
	processed := sox.NewProcessor(decoder, engine)
	reader := auris.NewPipedReader(processed)

The outermost stage is pulled by the consumer. Each stage owns its
upstream: closing the outermost source tears the whole chain down.

Formats

Samples travel between stages as interleaved little-endian bytes. The
format of a stage never changes after construction: sample rate, channel
count, the number of significant bits and the container width those bits
are stored in. Decoder stages are responsible for normalization, so that
the significant bits of every sample are aligned to the most significant
end of its container before the sample leaves the stage.

Decoupling

Decoding is usually slower and burstier than consumption. PipedReader
runs its upstream source on a dedicated goroutine and hands the decoded
frames over through a bounded pipe. The producer is paced by the
consumer: once the pipe is full it blocks until frames are taken out.
Closing the reader stops the producer deterministically, no matter what
it is blocked on.

Backends

Decoder and DSP stages bind their backends from shared libraries at run
time. See the dl, wavpack and sox packages.
*/
package auris
